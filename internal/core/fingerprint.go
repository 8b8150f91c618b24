package core

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint returns a short stable hash of the dataset contents. Equal
// datasets always have equal fingerprints, so it doubles as a revision tag
// and as the export key in audit entries.
func Fingerprint(d *ReportDataset) string {
	if d == nil {
		return ""
	}
	data, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// SessionTag returns a stable, non-reversible tag for a session ID so
// audit entries can be correlated without exposing the cookie value.
func SessionTag(id string) string {
	if id == "" {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(id))
}

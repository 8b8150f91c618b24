package web

// downloads.go holds exported documents between the export POST and the
// browser's GET. Each entry is served at most once and is dropped when
// served or when its TTL passes unclaimed.

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/JonMunkholm/dutysummary/internal/core"
)

type pendingDownload struct {
	artifact  *core.Artifact
	sessionID string
	expiresAt time.Time
}

// DownloadStore is an in-memory one-shot store of export artifacts.
type DownloadStore struct {
	mu    sync.Mutex
	items map[string]pendingDownload
	ttl   time.Duration
	now   func() time.Time
}

// NewDownloadStore creates a store whose entries live for ttl.
func NewDownloadStore(ttl time.Duration) *DownloadStore {
	return &DownloadStore{
		items: make(map[string]pendingDownload),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Put stores an artifact for one session and returns its token.
func (s *DownloadStore) Put(sessionID string, art *core.Artifact) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token := newRandomToken(24)
	s.items[token] = pendingDownload{
		artifact:  art,
		sessionID: sessionID,
		expiresAt: now.Add(s.ttl),
	}
	return token
}

// Take removes and returns the artifact for token. It fails when the token is
// unknown, expired, already taken, or belongs to another session.
func (s *DownloadStore) Take(token, sessionID string) (*core.Artifact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	item, ok := s.items[token]
	if !ok || item.sessionID != sessionID {
		return nil, false
	}
	delete(s.items, token)
	return item.artifact, true
}

// Len returns the number of pending downloads.
func (s *DownloadStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpiredLocked(s.now())
	return len(s.items)
}

func (s *DownloadStore) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if now.After(v.expiresAt) {
			delete(s.items, k)
		}
	}
}

func newRandomToken(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// contentDisposition builds an attachment header carrying the UTF-8 name in
// filename* and an ASCII fallback in filename.
func contentDisposition(filename string) string {
	fallback := asciiFallback(filename)
	return fmt.Sprintf(`attachment; filename=%q; filename*=UTF-8''%s`, fallback, url.PathEscape(filename))
}

// asciiFallback keeps the extension and replaces a non-ASCII stem.
func asciiFallback(filename string) string {
	ext := ""
	stem := filename
	if i := strings.LastIndex(filename, "."); i > 0 {
		stem, ext = filename[:i], filename[i:]
	}
	var b strings.Builder
	for _, r := range stem {
		if r < unicode.MaxASCII && r != '"' && r != '\\' && unicode.IsPrint(r) {
			b.WriteRune(r)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "summary" + ext
	}
	return b.String() + ext
}

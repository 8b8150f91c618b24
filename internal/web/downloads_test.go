package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/dutysummary/internal/core"
)

func TestDownloadStore(t *testing.T) {
	art := &core.Artifact{Filename: "a.docx", Body: []byte("doc")}

	t.Run("take once", func(t *testing.T) {
		s := NewDownloadStore(time.Minute)
		token := s.Put("s1", art)
		assert.Len(t, token, 32)
		assert.Equal(t, 1, s.Len())

		got, ok := s.Take(token, "s1")
		require.True(t, ok)
		assert.Same(t, art, got)

		_, ok = s.Take(token, "s1")
		assert.False(t, ok)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("other session cannot take", func(t *testing.T) {
		s := NewDownloadStore(time.Minute)
		token := s.Put("s1", art)

		_, ok := s.Take(token, "s2")
		assert.False(t, ok)
		_, ok = s.Take(token, "s1")
		assert.True(t, ok)
	})

	t.Run("expired entries are dropped", func(t *testing.T) {
		now := time.Now()
		s := NewDownloadStore(time.Minute)
		s.now = func() time.Time { return now }
		token := s.Put("s1", art)

		now = now.Add(2 * time.Minute)
		_, ok := s.Take(token, "s1")
		assert.False(t, ok)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("tokens are unique", func(t *testing.T) {
		s := NewDownloadStore(time.Minute)
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			token := s.Put("s1", art)
			assert.False(t, seen[token])
			seen[token] = true
		}
	})
}

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{
			name:     "chinese name",
			filename: "督导工作情况汇总.docx",
			want:     `attachment; filename="summary.docx"; filename*=UTF-8''%E7%9D%A3%E5%AF%BC%E5%B7%A5%E4%BD%9C%E6%83%85%E5%86%B5%E6%B1%87%E6%80%BB.docx`,
		},
		{
			name:     "ascii name",
			filename: "report.docx",
			want:     `attachment; filename="report.docx"; filename*=UTF-8''report.docx`,
		},
		{
			name:     "mixed name keeps ascii part",
			filename: "2024年summary.docx",
			want:     `attachment; filename="2024summary.docx"; filename*=UTF-8''2024%E5%B9%B4summary.docx`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, contentDisposition(tt.filename))
		})
	}
}

func TestAsciiFallback(t *testing.T) {
	assert.Equal(t, "summary.xlsx", asciiFallback("汇总.xlsx"))
	assert.Equal(t, "ab.docx", asciiFallback(`a"b.docx`))
	assert.Equal(t, "summary", asciiFallback("汇总"))
}

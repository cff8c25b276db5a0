package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSource(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		src, err := readSource("-", strings.NewReader("a\r\nb\r\n"))
		require.NoError(t, err)
		assert.Equal(t, "-", src.name)
		assert.Equal(t, "a\nb\n", src.code)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "main.go")
		require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o600))

		src, err := readSource(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "package main\n", src.code)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readSource(filepath.Join(t.TempDir(), "nope.go"), nil)
		assert.Error(t, err)
	})
}

func TestLanguageHint(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		file    string
		want    string
		wantErr bool
	}{
		{"flag wins", "Python", "main.go", "python", false},
		{"unsupported flag", "cobol", "main.go", "", true},
		{"from extension", "", "src/handler.ts", "typescript", false},
		{"stdin", "", "-", "", false},
		{"unknown extension", "", "notes.txt", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := languageHint(tt.flag, tt.file)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseReviewID(t *testing.T) {
	id, err := parseReviewID("#1712345678901")
	require.NoError(t, err)
	assert.Equal(t, int64(1712345678901), id)

	_, err = parseReviewID("abc")
	assert.Error(t, err)
}

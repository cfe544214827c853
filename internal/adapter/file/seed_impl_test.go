package file

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeeds(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		expected []string
	}{
		{
			name:     "skips blanks and comments",
			content:  "http://a.test\n\n# comment\n  http://b.test  \n",
			expected: []string{"http://a.test", "http://b.test"},
		},
		{
			name:     "handles CRLF",
			content:  "http://a.test\r\nhttp://b.test\r\n",
			expected: []string{"http://a.test", "http://b.test"},
		},
		{
			name:     "comment must start the line after trimming",
			content:  "  # indented comment\nhttp://a.test#frag",
			expected: []string{"http://a.test#frag"},
		},
		{
			name:     "only comments",
			content:  "# one\n#two\n\n",
			expected: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseSeeds(tt.content))
		})
	}
}

func TestSeedFile_Load(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input_urls.txt")
	require.NoError(t, os.WriteFile(path, []byte("# seeds\nhttp://x.test\n"), 0o644))

	urls, err := NewSeedFile(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"http://x.test"}, urls)
}

func TestSeedFile_LoadMissing(t *testing.T) {
	_, err := NewSeedFile(filepath.Join(t.TempDir(), "missing.txt")).Load(context.Background())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

package file

import (
	"context"
	"os"
	"strings"
)

// SeedFile reads start URLs from a newline-delimited text file.
// Blank lines and lines starting with '#' are ignored.
type SeedFile struct {
	path string
}

// NewSeedFile creates a seed source for the given path.
func NewSeedFile(path string) *SeedFile {
	return &SeedFile{path: path}
}

// Path returns the file the seeds are read from.
func (s *SeedFile) Path() string {
	return s.path
}

// Load returns the usable lines of the file, trimmed, in file order.
// A missing file yields an error satisfying errors.Is(err, fs.ErrNotExist).
func (s *SeedFile) Load(_ context.Context) ([]string, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}
	return ParseSeeds(string(content)), nil
}

// ParseSeeds extracts URLs from newline-delimited text.
func ParseSeeds(content string) []string {
	var urls []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}

package yamlfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Loader handles loading and parsing of a bookmarks import file
type Loader struct {
	filePath string
}

// NewLoader creates a new import file loader
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Path returns the file this loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load reads the file, expands ${VAR} references from the environment and
// parses it. Unknown keys are rejected so typos do not silently drop data.
func (l *Loader) Load() (*Document, error) {
	info, err := os.Stat(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat bookmarks file: %w", err)
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}

	entries, err := parse(expandEnv(data))
	if err != nil {
		return nil, err
	}

	return &Document{
		Entries: entries,
		ModTime: info.ModTime().UTC().Truncate(time.Second),
	}, nil
}

func parse(data []byte) ([]Entry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var entries []Entry
	if err := dec.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
	}
	return entries, nil
}

// expandEnv replaces ${VAR} and $VAR with environment values; unset
// variables become empty strings.
func expandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}

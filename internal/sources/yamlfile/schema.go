package yamlfile

import "time"

// Entry is one bookmark in an import file.
//
//	- id: go-blog-context
//	  url: https://go.dev/blog/context
//	  summary: Go Concurrency Patterns - Context
//	  display_date: "2014.07.29"
//	  topics: [go, concurrency]
type Entry struct {
	ID          string   `yaml:"id"`
	URL         string   `yaml:"url"`
	Summary     string   `yaml:"summary"`
	DisplayDate string   `yaml:"display_date"`
	Description string   `yaml:"description,omitempty"`
	Topics      []string `yaml:"topics,omitempty"`
	Status      string   `yaml:"status,omitempty"`
	Submitter   string   `yaml:"submitter,omitempty"`
}

// Document is a parsed import file.
type Document struct {
	Entries []Entry
	// ModTime is the file modification time, truncated to the second so
	// it survives a round trip through the database unchanged.
	ModTime time.Time
}

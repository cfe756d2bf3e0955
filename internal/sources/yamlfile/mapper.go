package yamlfile

import (
	"fmt"
	"time"

	"github.com/MrSnakeDoc/anansi/internal/domain"
)

// SourceName is the provenance tag stored on imported bookmarks.
const SourceName = "yaml"

// Mapper converts import entries to service requests
type Mapper struct{}

// NewMapper creates a new entry mapper
func NewMapper() *Mapper {
	return &Mapper{}
}

// Validate checks the parts of an entry the service cannot: the id is the
// provenance key and must be present and unique within the file.
func (m *Mapper) Validate(entries []Entry) map[int]error {
	problems := make(map[int]error)
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		switch {
		case e.ID == "":
			problems[i] = fmt.Errorf("entry %d: missing id", i)
		case len(e.ID) > 50:
			problems[i] = fmt.Errorf("entry %d: id %q longer than 50 characters", i, e.ID)
		default:
			if first, dup := seen[e.ID]; dup {
				problems[i] = fmt.Errorf("entry %d: id %q already used by entry %d", i, e.ID, first)
				continue
			}
			seen[e.ID] = i
		}
	}
	return problems
}

// ToCreate maps an entry that has never been imported.
func (m *Mapper) ToCreate(e Entry, modTime time.Time) domain.CreateRequest {
	source, itemID := SourceName, e.ID
	req := domain.CreateRequest{
		URL:               e.URL,
		Summary:           e.Summary,
		DisplayDate:       e.DisplayDate,
		Topics:            e.Topics,
		Status:            e.Status,
		Source:            &source,
		SourceItemID:      &itemID,
		SourceLastUpdated: &modTime,
	}
	if e.Description != "" {
		desc := e.Description
		req.Description = &desc
	}
	if e.Submitter != "" {
		submitter := e.Submitter
		req.SubmitterID = &submitter
	}
	return req
}

// ToUpdate maps an entry whose file changed since the last import. The file
// is authoritative for content: topics and description are replaced, an
// absent description clears the stored one.
func (m *Mapper) ToUpdate(e Entry, modTime time.Time) domain.UpdateRequest {
	url, summary, displayDate, desc := e.URL, e.Summary, e.DisplayDate, e.Description
	topics := append([]string{}, e.Topics...)
	req := domain.UpdateRequest{
		URL:               &url,
		Summary:           &summary,
		DisplayDate:       &displayDate,
		Description:       &desc,
		Topics:            &topics,
		SourceLastUpdated: &modTime,
	}
	if e.Status != "" {
		status := e.Status
		req.Status = &status
	}
	if e.Submitter != "" {
		submitter := e.Submitter
		req.SubmitterID = &submitter
	}
	return req
}

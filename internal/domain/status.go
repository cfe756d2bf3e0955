package domain

import (
	"fmt"
	"strings"
)

// Status is the review state of a bookmark.
type Status string

const (
	StatusNew       Status = "new"
	StatusSubmitted Status = "submitted"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
)

var (
	validStatuses         = []Status{StatusNew, StatusSubmitted, StatusAccepted, StatusRejected}
	validOriginalStatuses = []Status{StatusNew, StatusSubmitted}
)

// AssertValidStatus fails with ErrInvalidStatus unless s is one of the
// four known statuses. The comparison is case-sensitive.
func AssertValidStatus(s Status) error {
	if !containsStatus(validStatuses, s) {
		return fmt.Errorf("%w '%s'; must be one of %s", ErrInvalidStatus, s, quoteStatuses(validStatuses, ", "))
	}
	return nil
}

// AssertValidOriginalStatus fails with ErrInvalidStatus unless s may be
// set on a newly created bookmark.
func AssertValidOriginalStatus(s Status) error {
	if !containsStatus(validOriginalStatuses, s) {
		return fmt.Errorf("%w '%s' on bookmark creation; must be %s", ErrInvalidStatus, s, quoteStatuses(validOriginalStatuses, " or "))
	}
	return nil
}

// AssertValidTransition validates both statuses, then rejects any move
// back into StatusNew. Self-transitions are always legal.
func AssertValidTransition(from, to Status) error {
	for _, s := range []Status{from, to} {
		if err := AssertValidStatus(s); err != nil {
			return err
		}
	}
	if from == to || from == StatusNew || to != StatusNew {
		return nil
	}
	return fmt.Errorf("%w '%s' -> '%s'", ErrInvalidTransition, from, to)
}

// NormalizeStatus lower-cases and trims client input before validation.
// Validation itself stays case-sensitive.
func NormalizeStatus(raw string) Status {
	return Status(strings.ToLower(strings.TrimSpace(raw)))
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func quoteStatuses(list []Status, sep string) string {
	quoted := make([]string, 0, len(list))
	for _, s := range list {
		quoted = append(quoted, "'"+string(s)+"'")
	}
	return strings.Join(quoted, sep)
}

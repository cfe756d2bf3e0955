package domain

import (
	"errors"
	"testing"
)

var reviewed = []Status{StatusSubmitted, StatusAccepted, StatusRejected}

func TestAssertValidStatus(t *testing.T) {
	for _, s := range []Status{StatusNew, StatusSubmitted, StatusAccepted, StatusRejected} {
		if err := AssertValidStatus(s); err != nil {
			t.Errorf("AssertValidStatus(%q) = %v, want nil", s, err)
		}
	}

	for _, s := range []Status{"", "NEW", "Submitted", "duplicate", "freida", " new"} {
		err := AssertValidStatus(s)
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("AssertValidStatus(%q) = %v, want ErrInvalidStatus", s, err)
		}
	}
}

func TestAssertValidStatusMessage(t *testing.T) {
	err := AssertValidStatus("new_status")
	want := "invalid bookmark status 'new_status'; must be one of 'new', 'submitted', 'accepted', 'rejected'"
	if err == nil || err.Error() != want {
		t.Errorf("AssertValidStatus() = %v, want %q", err, want)
	}
}

func TestAssertValidOriginalStatus(t *testing.T) {
	tests := []struct {
		status  Status
		wantErr bool
	}{
		{StatusNew, false},
		{StatusSubmitted, false},
		{StatusAccepted, true},
		{StatusRejected, true},
		{"freida", true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			err := AssertValidOriginalStatus(tt.status)
			if tt.wantErr && !errors.Is(err, ErrInvalidStatus) {
				t.Errorf("AssertValidOriginalStatus(%q) = %v, want ErrInvalidStatus", tt.status, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("AssertValidOriginalStatus(%q) = %v, want nil", tt.status, err)
			}
		})
	}
}

func TestAssertValidTransition(t *testing.T) {
	t.Run("never back to new", func(t *testing.T) {
		for _, s := range reviewed {
			if err := AssertValidTransition(s, StatusNew); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("AssertValidTransition(%q, new) = %v, want ErrInvalidTransition", s, err)
			}
		}
	})

	t.Run("from new to anything", func(t *testing.T) {
		for _, s := range append([]Status{StatusNew}, reviewed...) {
			if err := AssertValidTransition(StatusNew, s); err != nil {
				t.Errorf("AssertValidTransition(new, %q) = %v, want nil", s, err)
			}
		}
	})

	t.Run("among reviewed statuses", func(t *testing.T) {
		for _, from := range reviewed {
			for _, to := range reviewed {
				if err := AssertValidTransition(from, to); err != nil {
					t.Errorf("AssertValidTransition(%q, %q) = %v, want nil", from, to, err)
				}
			}
		}
	})

	t.Run("invalid statuses propagate", func(t *testing.T) {
		if err := AssertValidTransition("bogus", StatusAccepted); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("AssertValidTransition(bogus, accepted) = %v, want ErrInvalidStatus", err)
		}
		if err := AssertValidTransition(StatusAccepted, "NEW"); !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("AssertValidTransition(accepted, NEW) = %v, want ErrInvalidStatus", err)
		}
	})
}

func TestNormalizeStatus(t *testing.T) {
	if got := NormalizeStatus(" SUBMITTED "); got != StatusSubmitted {
		t.Errorf("NormalizeStatus() = %q, want %q", got, StatusSubmitted)
	}
}

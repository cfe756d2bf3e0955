package connect

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrSnakeDoc/anansi/internal/logger"
)

func fastPolicy() Policy {
	return Policy{
		ConnectTimeout: 200 * time.Millisecond,
		RetryInterval:  5 * time.Millisecond,
		MaxWait:        20 * time.Millisecond,
		PingTimeout:    10 * time.Millisecond,
		WarnThreshold:  1,
	}
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	ping := func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	}

	if err := WithRetry(context.Background(), "test", "localhost:1", fastPolicy(), ping, logger.NewNop()); err != nil {
		t.Fatalf("WithRetry() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("ping called %d times, want 3", calls)
	}
}

func TestWithRetryTimesOut(t *testing.T) {
	down := errors.New("connection refused")
	err := WithRetry(context.Background(), "test", "localhost:1", fastPolicy(),
		func(context.Context) error { return down }, logger.NewNop())
	if !errors.Is(err, down) {
		t.Errorf("WithRetry() error = %v, want wrapped ping error", err)
	}
}

func TestPolicyValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Policy)
	}{
		{"connect timeout", func(p *Policy) { p.ConnectTimeout = 0 }},
		{"retry interval", func(p *Policy) { p.RetryInterval = -1 }},
		{"max wait", func(p *Policy) { p.MaxWait = 0 }},
		{"ping timeout", func(p *Policy) { p.PingTimeout = 0 }},
		{"warn threshold", func(p *Policy) { p.WarnThreshold = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := fastPolicy()
			tt.mutate(&p)
			if err := p.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}

	if err := fastPolicy().Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

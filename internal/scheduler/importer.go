package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/anansi/internal/logger"
	"github.com/MrSnakeDoc/anansi/internal/metrics"
	"github.com/MrSnakeDoc/anansi/internal/sources/yamlfile"
)

// ImportRunner performs one import pass.
type ImportRunner interface {
	Run(ctx context.Context) (yamlfile.Result, error)
}

// Importer handles periodic and on-demand imports of the bookmarks file
type Importer struct {
	runner        ImportRunner
	logger        logger.Logger
	metrics       *metrics.Metrics
	interval      time.Duration
	stopCh        chan struct{}
	stopOnce      sync.Once
	manualTrigger chan struct{}
	done          chan struct{}
}

// NewImporter creates a new importer loop. m may be nil.
func NewImporter(runner ImportRunner, log logger.Logger, m *metrics.Metrics, interval time.Duration) *Importer {
	return &Importer{
		runner:        runner,
		logger:        log,
		metrics:       m,
		interval:      interval,
		stopCh:        make(chan struct{}),
		manualTrigger: make(chan struct{}, 1),
		done:          make(chan struct{}),
	}
}

// Start imports once, then keeps importing on every tick and manual trigger.
func (im *Importer) Start(ctx context.Context) error {
	// Import immediately on start
	if err := im.Import(ctx); err != nil {
		return fmt.Errorf("initial bookmark import failed: %w", err)
	}

	ticker := time.NewTicker(im.interval)
	go func() {
		defer close(im.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := im.Import(ctx); err != nil {
					im.logger.Error("failed to import bookmarks", logger.Error(err))
				}
			case <-im.manualTrigger:
				im.logger.Info("manual bookmark import triggered")
				if err := im.Import(ctx); err != nil {
					im.logger.Error("failed to import bookmarks", logger.Error(err))
				}
			case <-im.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Trigger requests an import without waiting for it. It returns false
// when one is already pending.
func (im *Importer) Trigger() bool {
	select {
	case im.manualTrigger <- struct{}{}:
		return true
	default:
		return false
	}
}

// Stop stops the loop and waits for an in-flight import to finish.
func (im *Importer) Stop() {
	im.stopOnce.Do(func() { close(im.stopCh) })
	<-im.done
}

// Import runs one pass and records its metrics.
func (im *Importer) Import(ctx context.Context) error {
	res, err := im.runner.Run(ctx)
	if im.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		im.metrics.ImportRuns.WithLabelValues(result).Inc()
		im.metrics.ImportEntries.WithLabelValues("created").Add(float64(res.Created))
		im.metrics.ImportEntries.WithLabelValues("updated").Add(float64(res.Updated))
		im.metrics.ImportEntries.WithLabelValues("skipped").Add(float64(res.Skipped))
		im.metrics.ImportEntries.WithLabelValues("failed").Add(float64(res.Failed))
	}
	return err
}

package yamlfile

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/anansi/internal/domain"
	"github.com/MrSnakeDoc/anansi/internal/logger"
)

// BookmarkWriter is the part of the bookmark service the importer needs.
type BookmarkWriter interface {
	FindBySource(ctx context.Context, source, itemID string) (*domain.Bookmark, error)
	Create(ctx context.Context, req domain.CreateRequest) (*domain.Bookmark, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateRequest) (*domain.Bookmark, error)
}

// Result counts what one import run did.
type Result struct {
	Created int
	Updated int
	Skipped int
	Failed  int
}

// Importer upserts the entries of an import file, keyed on (source, id).
type Importer struct {
	loader *Loader
	mapper *Mapper
	writer BookmarkWriter
	logger logger.Logger
}

// NewImporter creates an importer for filePath.
func NewImporter(filePath string, writer BookmarkWriter, log logger.Logger) *Importer {
	return &Importer{
		loader: NewLoader(filePath),
		mapper: NewMapper(),
		writer: writer,
		logger: log,
	}
}

// Run loads the file and applies it. Entries that fail are logged and
// counted; only an unreadable file fails the run.
func (im *Importer) Run(ctx context.Context) (Result, error) {
	var res Result

	doc, err := im.loader.Load()
	if err != nil {
		return res, fmt.Errorf("failed to load import file: %w", err)
	}

	im.logger.Info("importing bookmarks",
		logger.String("file", im.loader.Path()),
		logger.Int("entries", len(doc.Entries)),
		logger.Time("modified", doc.ModTime))

	problems := im.mapper.Validate(doc.Entries)
	for i, e := range doc.Entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if perr, bad := problems[i]; bad {
			res.Failed++
			im.logger.Warn("skipping invalid import entry", logger.Error(perr))
			continue
		}

		outcome, err := im.apply(ctx, e, doc)
		if err != nil {
			res.Failed++
			im.logger.Warn("failed to import bookmark",
				logger.String("id", e.ID),
				logger.Error(err))
			continue
		}
		switch outcome {
		case outcomeCreated:
			res.Created++
		case outcomeUpdated:
			res.Updated++
		default:
			res.Skipped++
		}
	}

	im.logger.Info("bookmark import finished",
		logger.Int("created", res.Created),
		logger.Int("updated", res.Updated),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed))
	return res, nil
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeUpdated
)

func (im *Importer) apply(ctx context.Context, e Entry, doc *Document) (outcome, error) {
	existing, err := im.writer.FindBySource(ctx, SourceName, e.ID)
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		if _, err := im.writer.Create(ctx, im.mapper.ToCreate(e, doc.ModTime)); err != nil {
			return outcomeSkipped, err
		}
		return outcomeCreated, nil
	case err != nil:
		return outcomeSkipped, err
	}

	if existing.SourceLastUpdated != nil && !doc.ModTime.After(*existing.SourceLastUpdated) {
		return outcomeSkipped, nil
	}
	if _, err := im.writer.Update(ctx, existing.ID, im.mapper.ToUpdate(e, doc.ModTime)); err != nil {
		return outcomeSkipped, err
	}
	return outcomeUpdated, nil
}

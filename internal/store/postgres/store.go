package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/MrSnakeDoc/anansi/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
}

// Store implements domain.Store on PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// NewStore creates a store over an open pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// ====================
// Writes
// ====================

// Insert writes the bookmark and its topics in one transaction.
func (s *Store) Insert(ctx context.Context, b *domain.Bookmark) (*domain.Bookmark, error) {
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO bookmarks (` + bookmarkColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		`
		if _, err := tx.ExecContext(ctx, query,
			b.ID, b.URL, b.Summary, b.SortDate, b.Description, string(b.DisplayDateFormat),
			string(b.Status), b.Source, b.SourceItemID, b.SourceLastUpdated, b.SubmitterID,
			b.CreatedOn, b.SubmittedOn,
		); err != nil {
			return translate(err, "insert bookmark")
		}
		return insertTopics(ctx, tx, b.ID, b.Topics)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Update locks the row, applies mutate and writes the changed columns and
// topic diff. Topics kept across the update keep their created_on.
func (s *Store) Update(ctx context.Context, id uuid.UUID, mutate func(*domain.Bookmark) error) (*domain.Bookmark, error) {
	var updated *domain.Bookmark
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		current, err := loadOne(ctx, tx, "WHERE bookmark_id = $1 FOR UPDATE", id)
		if err != nil {
			return err
		}
		before := append([]string(nil), current.Topics...)

		if err := mutate(current); err != nil {
			return err
		}

		query := `
			UPDATE bookmarks
			SET url = $2, summary = $3, description = $4, sort_date = $5, display_date_format = $6,
				status = $7, submitter_id = $8, submitted_on = $9, source_last_updated = $10
			WHERE bookmark_id = $1
		`
		if _, err := tx.ExecContext(ctx, query,
			id, current.URL, current.Summary, current.Description, current.SortDate,
			string(current.DisplayDateFormat), string(current.Status), current.SubmitterID,
			current.SubmittedOn, current.SourceLastUpdated,
		); err != nil {
			return translate(err, "update bookmark")
		}

		removed, added := diffTopics(before, current.Topics)
		if len(removed) > 0 {
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM bookmark_topics WHERE bookmark_id = $1 AND topic = ANY($2)`,
				id, pq.Array(removed),
			); err != nil {
				return translate(err, "remove topics")
			}
		}
		if err := insertTopics(ctx, tx, id, added); err != nil {
			return err
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the bookmark; topics and notes go with it through ON DELETE CASCADE.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE bookmark_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	return nil
}

// AppendNote inserts a note for an existing bookmark.
func (s *Store) AppendNote(ctx context.Context, bookmarkID uuid.UUID, note domain.Note) (*domain.Note, error) {
	query := `
		INSERT INTO bookmark_notes (note_id, bookmark_id, text, author, created_on)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.ExecContext(ctx, query, note.ID, bookmarkID, note.Text, note.Author, note.CreatedOn); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pgForeignKeyViolation {
			return nil, fmt.Errorf("%w: bookmark %s", domain.ErrRecordNotFound, bookmarkID)
		}
		return nil, translate(err, "insert note")
	}
	return &note, nil
}

// ====================
// Reads
// ====================

// FindByID loads a bookmark with its topics and notes.
func (s *Store) FindByID(ctx context.Context, id uuid.UUID) (*domain.Bookmark, error) {
	return loadOne(ctx, s.db, "WHERE bookmark_id = $1", id)
}

// FindBySource loads the bookmark imported as (source, itemID).
func (s *Store) FindBySource(ctx context.Context, source, itemID string) (*domain.Bookmark, error) {
	return loadOne(ctx, s.db, "WHERE source = $1 AND source_item_id = $2", source, itemID)
}

// Query returns one keyset page ordered by (sort_date, bookmark_id).
func (s *Store) Query(ctx context.Context, q domain.Query) ([]*domain.Bookmark, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.Topics) > 0 {
		where = append(where, "bookmark_id IN (SELECT bookmark_id FROM bookmark_topics WHERE topic = ANY("+arg(pq.Array(q.Topics))+"))")
	}
	if q.After != nil {
		// Row comparison is exactly sort_date > a OR (sort_date = a AND bookmark_id > b).
		where = append(where, "(sort_date, bookmark_id) > ("+arg(q.After.SortDate)+", "+arg(q.After.ID)+")")
	}

	var sb strings.Builder
	sb.WriteString("SELECT " + bookmarkColumns + " FROM bookmarks")
	if len(where) > 0 {
		sb.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY sort_date, bookmark_id LIMIT " + arg(domain.NormalizeMaxResults(q.Limit)))

	var rows []bookmarkRow
	if err := sqlx.SelectContext(ctx, s.db, &rows, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}

	bookmarks := make([]*domain.Bookmark, 0, len(rows))
	for _, r := range rows {
		bookmarks = append(bookmarks, r.toDomain())
	}
	if err := attachChildren(ctx, s.db, bookmarks); err != nil {
		return nil, err
	}
	return bookmarks, nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ====================
// Helpers
// ====================

func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func loadOne(ctx context.Context, q queryer, where string, args ...any) (*domain.Bookmark, error) {
	var row bookmarkRow
	query := "SELECT " + bookmarkColumns + " FROM bookmarks " + where
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: bookmark %v", domain.ErrRecordNotFound, args)
		}
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}

	b := row.toDomain()
	if err := attachChildren(ctx, q, []*domain.Bookmark{b}); err != nil {
		return nil, err
	}
	return b, nil
}

// attachChildren loads topics and notes for all bookmarks in two queries.
func attachChildren(ctx context.Context, q queryer, bookmarks []*domain.Bookmark) error {
	if len(bookmarks) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Bookmark, len(bookmarks))
	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		byID[b.ID] = b
		ids = append(ids, b.ID.String())
	}

	var topics []topicRow
	if err := sqlx.SelectContext(ctx, q, &topics,
		`SELECT bookmark_id, topic FROM bookmark_topics WHERE bookmark_id = ANY($1::uuid[]) ORDER BY topic`,
		pq.Array(ids),
	); err != nil {
		return fmt.Errorf("failed to load topics: %w", err)
	}
	for _, t := range topics {
		if b, ok := byID[t.BookmarkID]; ok {
			b.Topics = append(b.Topics, t.Topic)
		}
	}

	var notes []noteRow
	if err := sqlx.SelectContext(ctx, q, &notes,
		`SELECT note_id, bookmark_id, text, author, created_on FROM bookmark_notes
		WHERE bookmark_id = ANY($1::uuid[]) ORDER BY created_on, note_id`,
		pq.Array(ids),
	); err != nil {
		return fmt.Errorf("failed to load notes: %w", err)
	}
	for _, n := range notes {
		if b, ok := byID[n.BookmarkID]; ok {
			b.Notes = append(b.Notes, n.toDomain())
		}
	}

	for _, b := range bookmarks {
		// Database collation may differ from byte order.
		b.SetTopics(b.Topics)
	}
	return nil
}

func insertTopics(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, topics []string) error {
	for _, topic := range topics {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bookmark_topics (bookmark_id, topic, created_on) VALUES ($1, $2, NOW())
			ON CONFLICT (bookmark_id, topic) DO NOTHING`,
			id, topic,
		); err != nil {
			return translate(err, "insert topic")
		}
	}
	return nil
}

// diffTopics returns the topics only in before and only in after.
func diffTopics(before, after []string) (removed, added []string) {
	inBefore := make(map[string]bool, len(before))
	for _, t := range before {
		inBefore[t] = true
	}
	inAfter := make(map[string]bool, len(after))
	for _, t := range after {
		inAfter[t] = true
		if !inBefore[t] {
			added = append(added, t)
		}
	}
	for _, t := range before {
		if !inAfter[t] {
			removed = append(removed, t)
		}
	}
	return removed, added
}

func translate(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", domain.ErrDuplicateRecord, pqErr.Message)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/anansi/internal/domain"
)

var (
	bookmarkCols = []string{
		"bookmark_id", "url", "summary", "sort_date", "description", "display_date_format",
		"status", "source", "source_item_id", "source_last_updated", "submitter_id", "created_on", "submitted_on",
	}
	sortDate  = time.Date(2017, 4, 1, 0, 0, 0, 0, time.UTC)
	createdOn = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err, "failed to create sqlmock")
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(sqlx.NewDb(db, "postgres")), mock
}

func bookmarkRows(ids ...uuid.UUID) *sqlmock.Rows {
	rows := sqlmock.NewRows(bookmarkCols)
	for _, id := range ids {
		rows.AddRow(id.String(), "https://example.com", "Example", sortDate, nil, "%Y.%m",
			"new", nil, nil, nil, nil, createdOn, nil)
	}
	return rows
}

func expectChildren(mock sqlmock.Sqlmock, topics map[uuid.UUID][]string) {
	topicRows := sqlmock.NewRows([]string{"bookmark_id", "topic"})
	for id, ts := range topics {
		for _, topic := range ts {
			topicRows.AddRow(id.String(), topic)
		}
	}
	mock.ExpectQuery("SELECT bookmark_id, topic FROM bookmark_topics").WillReturnRows(topicRows)
	mock.ExpectQuery("FROM bookmark_notes").
		WillReturnRows(sqlmock.NewRows([]string{"note_id", "bookmark_id", "text", "author", "created_on"}))
}

func newBookmark() *domain.Bookmark {
	return &domain.Bookmark{
		ID:                uuid.New(),
		URL:               "https://example.com",
		Summary:           "Example",
		SortDate:          sortDate,
		DisplayDateFormat: domain.FormatMonth,
		Status:            domain.StatusNew,
		Topics:            []string{"apis", "go"},
		CreatedOn:         createdOn,
	}
}

func TestStore_FindByID(t *testing.T) {
	id := uuid.New()

	testCases := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "returns bookmark with sorted topics",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM bookmarks WHERE bookmark_id").
					WithArgs(id).
					WillReturnRows(bookmarkRows(id))
				expectChildren(mock, map[uuid.UUID][]string{id: {"go", "apis"}})
			},
		},
		{
			name: "maps no rows to not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM bookmarks WHERE bookmark_id").
					WithArgs(id).
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: domain.ErrRecordNotFound,
		},
		{
			name: "propagates database failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM bookmarks WHERE bookmark_id").
					WithArgs(id).
					WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tc.setupMock(mock)

			b, err := store.FindByID(context.Background(), id)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, id, b.ID)
				assert.Equal(t, []string{"apis", "go"}, b.Topics)
				assert.Equal(t, domain.FormatMonth, b.DisplayDateFormat)
				assert.Nil(t, b.Description)
				assert.Nil(t, b.SubmittedOn)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestBookmarkRowEmptyFormatUsesColumnDefault(t *testing.T) {
	b := bookmarkRow{BookmarkID: uuid.New(), SortDate: sortDate, Status: "new"}.toDomain()
	assert.Equal(t, domain.DefaultDateFormat, b.DisplayDateFormat)

	b = bookmarkRow{BookmarkID: uuid.New(), SortDate: sortDate, DisplayDateFormat: "%Y", Status: "new"}.toDomain()
	assert.Equal(t, domain.FormatYear, b.DisplayDateFormat)
}

func TestStore_FindBySource(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectQuery("FROM bookmarks WHERE source = (.+) AND source_item_id").
		WithArgs("yaml", "item-1").
		WillReturnRows(bookmarkRows(id))
	expectChildren(mock, nil)

	b, err := store.FindBySource(context.Background(), "yaml", "item-1")
	require.NoError(t, err)
	assert.Equal(t, id, b.ID)
	assert.Empty(t, b.Topics)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Insert(t *testing.T) {
	t.Run("writes bookmark and topics", func(t *testing.T) {
		store, mock := newMockStore(t)
		b := newBookmark()

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO bookmarks").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO bookmark_topics").WithArgs(b.ID, "apis").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO bookmark_topics").WithArgs(b.ID, "go").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := store.Insert(context.Background(), b)
		require.NoError(t, err)
		assert.Equal(t, b.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps unique violation to duplicate", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO bookmarks").WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key"})
		mock.ExpectRollback()

		_, err := store.Insert(context.Background(), newBookmark())
		assert.ErrorIs(t, err, domain.ErrDuplicateRecord)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Update(t *testing.T) {
	id := uuid.New()

	t.Run("diffs topics inside one transaction", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(id).WillReturnRows(bookmarkRows(id))
		expectChildren(mock, map[uuid.UUID][]string{id: {"apis", "go"}})
		mock.ExpectExec("UPDATE bookmarks").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("DELETE FROM bookmark_topics").WithArgs(id, sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO bookmark_topics").WithArgs(id, "db").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		got, err := store.Update(context.Background(), id, func(b *domain.Bookmark) error {
			b.Summary = "changed"
			b.SetTopics([]string{"go", "db"})
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, "changed", got.Summary)
		assert.Equal(t, []string{"db", "go"}, got.Topics)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when mutation fails", func(t *testing.T) {
		store, mock := newMockStore(t)
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(id).WillReturnRows(bookmarkRows(id))
		expectChildren(mock, nil)
		mock.ExpectRollback()

		_, err := store.Update(context.Background(), id, func(*domain.Bookmark) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing bookmark", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(id).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		_, err := store.Update(context.Background(), id, func(*domain.Bookmark) error { return nil })
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Delete(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec("DELETE FROM bookmarks WHERE bookmark_id").WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_Query(t *testing.T) {
	t.Run("applies topic filter and keyset predicate", func(t *testing.T) {
		store, mock := newMockStore(t)
		first, second := uuid.New(), uuid.New()
		after := domain.Cursor{SortDate: sortDate.Add(-time.Hour), ID: uuid.New()}

		mock.ExpectQuery(regexp.QuoteMeta("WHERE bookmark_id IN (SELECT bookmark_id FROM bookmark_topics WHERE topic = ANY($1)) AND (sort_date, bookmark_id) > ($2, $3) ORDER BY sort_date, bookmark_id LIMIT $4")).
			WithArgs(sqlmock.AnyArg(), after.SortDate, after.ID, 2).
			WillReturnRows(bookmarkRows(first, second))
		expectChildren(mock, map[uuid.UUID][]string{first: {"go"}, second: {"go", "db"}})

		rows, err := store.Query(context.Background(), domain.Query{
			Topics: []string{"go"},
			After:  &after,
			Limit:  2,
		})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, first, rows[0].ID)
		assert.Equal(t, []string{"db", "go"}, rows[1].Topics)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty page skips child queries", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectQuery(regexp.QuoteMeta("FROM bookmarks ORDER BY sort_date, bookmark_id LIMIT $1")).
			WithArgs(domain.DefaultMaxResults).
			WillReturnRows(sqlmock.NewRows(bookmarkCols))

		rows, err := store.Query(context.Background(), domain.Query{})
		require.NoError(t, err)
		assert.Empty(t, rows)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_AppendNote(t *testing.T) {
	t.Run("inserts note", func(t *testing.T) {
		store, mock := newMockStore(t)
		id := uuid.New()
		note := domain.Note{ID: uuid.New(), Text: "hello", Author: "ada", CreatedOn: createdOn}

		mock.ExpectExec("INSERT INTO bookmark_notes").
			WithArgs(note.ID, id, "hello", "ada", createdOn).
			WillReturnResult(sqlmock.NewResult(0, 1))

		got, err := store.AppendNote(context.Background(), id, note)
		require.NoError(t, err)
		assert.Equal(t, note.ID, got.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing parent is not found", func(t *testing.T) {
		store, mock := newMockStore(t)

		mock.ExpectExec("INSERT INTO bookmark_notes").WillReturnError(&pq.Error{Code: "23503"})

		_, err := store.AppendNote(context.Background(), uuid.New(), domain.Note{ID: uuid.New()})
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDiffTopics(t *testing.T) {
	removed, added := diffTopics([]string{"a", "b", "c"}, []string{"b", "c", "d"})
	assert.Equal(t, []string{"a"}, removed)
	assert.Equal(t, []string{"d"}, added)

	removed, added = diffTopics(nil, nil)
	assert.Empty(t, removed)
	assert.Empty(t, added)
}

func TestRedactDSN(t *testing.T) {
	testCases := map[string]string{
		"postgres://anansi:secret@db:5432/anansi?sslmode=disable": "postgres://anansi:xxxxx@db:5432/anansi?sslmode=disable",
		"host=db user=anansi password=secret dbname=anansi":        "host=db user=anansi password=xxxxx dbname=anansi",
		"postgres://db:5432/anansi":                                "postgres://db:5432/anansi",
	}
	for in, want := range testCases {
		assert.Equal(t, want, RedactDSN(in))
	}
}

package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrSnakeDoc/anansi/internal/domain"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/deps"
	"github.com/MrSnakeDoc/anansi/internal/httpserver/respond"
)

const maxBodyBytes = 1 << 20

// ListBookmarks handles GET /bookmarks/?topic=..&count=..&cursor=..
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		// Zero leaves the page size to domain.NormalizeMaxResults.
		req := domain.ListRequest{
			Topics:     q["topic"],
			MaxResults: d.DefaultPageSize,
		}

		if raw, ok := q["count"]; ok {
			count, err := strconv.Atoi(raw[0])
			if err != nil {
				respond.Error(w, d.Logger, fmt.Errorf("%w: count must be a valid int. was: %s", domain.ErrInvalidBookmark, raw[0]))
				return
			}
			if count > 0 {
				req.MaxResults = count
			}
		}

		if raw, ok := q["cursor"]; ok {
			cursor, err := decodeCursor(raw[0])
			if err != nil {
				respond.Error(w, d.Logger, err)
				return
			}
			req.Cursor = cursor
		}

		page, err := d.Bookmarks.List(r.Context(), req)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		if len(page.Bookmarks) == 0 {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		out, err := formatBookmarks(page.Bookmarks)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		respond.JSON(w, d.Logger, http.StatusOK, bookmarksResponse{
			Bookmarks:  out,
			NextCursor: encodeCursor(page.NextCursor),
		})
	}
}

// GetBookmark handles GET /bookmarks/{id}
func GetBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := bookmarkID(r)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		b, err := d.Bookmarks.Get(r.Context(), id)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		out, err := formatBookmark(b)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		respond.JSON(w, d.Logger, http.StatusOK, out)
	}
}

// CreateBookmark handles POST /bookmarks/
func CreateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body bookmarkRequest
		if err := decodeBody(w, r, &body); err != nil {
			respond.Error(w, d.Logger, err)
			return
		}

		req := body.toCreate()
		if body.BookmarkID != nil {
			id, err := uuid.Parse(*body.BookmarkID)
			if err != nil {
				respond.Error(w, d.Logger, fmt.Errorf("%w: bookmark_id %q is not a uuid", domain.ErrInvalidBookmark, *body.BookmarkID))
				return
			}
			req.ID = &id
		}

		b, err := d.Bookmarks.Create(r.Context(), req)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		recordWrite(d, "create")
		writeBookmarks(w, d, b)
	}
}

// PutBookmark handles PUT /bookmarks/{id}: update, or create when absent.
func PutBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := bookmarkID(r)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}

		var body bookmarkRequest
		if err := decodeBody(w, r, &body); err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		if body.BookmarkID != nil && *body.BookmarkID != id.String() {
			respond.Error(w, d.Logger, fmt.Errorf("%w: bookmark_id in body does not match the url", domain.ErrInvalidBookmark))
			return
		}

		b, err := d.Bookmarks.Upsert(r.Context(), id, body.toUpdate())
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		recordWrite(d, "update")
		writeBookmarks(w, d, b)
	}
}

// DeleteBookmark handles DELETE /bookmarks/{id}. Absent ids are not an error.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := bookmarkID(r)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		if err := d.Bookmarks.Delete(r.Context(), id); err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		recordWrite(d, "delete")
		w.WriteHeader(http.StatusNoContent)
	}
}

// AddNote handles POST /bookmarks/{id}/notes
func AddNote(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := bookmarkID(r)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}

		var body noteRequest
		if err := decodeBody(w, r, &body); err != nil {
			respond.Error(w, d.Logger, err)
			return
		}

		b, err := d.Bookmarks.AddNote(r.Context(), id, body.Text, body.Author)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		recordWrite(d, "note")

		out, err := formatBookmark(b)
		if err != nil {
			respond.Error(w, d.Logger, err)
			return
		}
		respond.JSON(w, d.Logger, http.StatusOK, out)
	}
}

func bookmarkID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bookmark_id %q is not a uuid", domain.ErrInvalidBookmark, raw)
	}
	return id, nil
}

// decodeBody parses a JSON object body into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: body must be parseable JSON", domain.ErrInvalidBookmark)
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidBookmark, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: body must contain a single JSON object", domain.ErrInvalidBookmark)
	}
	return nil
}

func writeBookmarks(w http.ResponseWriter, d deps.Deps, b *domain.Bookmark) {
	out, err := formatBookmark(b)
	if err != nil {
		respond.Error(w, d.Logger, err)
		return
	}
	respond.JSON(w, d.Logger, http.StatusOK, bookmarksResponse{Bookmarks: []bookmarkJSON{out}})
}

func recordWrite(d deps.Deps, op string) {
	if d.Metrics != nil {
		d.Metrics.BookmarkWrites.WithLabelValues(op).Inc()
	}
}

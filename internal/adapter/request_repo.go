package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// RequestRepo is the SQLite-backed Request Store. Updates are plain
// last-write-wins UPDATEs; the only racing writers are approval and the
// poller, which converge on the same terminal state.
type RequestRepo struct {
	db *sql.DB
}

func NewRequestRepo(db *sql.DB) *RequestRepo {
	return &RequestRepo{db: db}
}

const requestColumns = `id, user_id, book_id, status, quality_profile_id,
	external_author_id, external_book_id,
	requested_at, processed_at, completed_at, last_polled_at`

func (r *RequestRepo) Create(ctx context.Context, req model.Request) (model.Request, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO requests (user_id, book_id, status, quality_profile_id, requested_at)
		VALUES (?, ?, ?, ?, ?)`,
		req.UserID, req.BookID, string(req.Status), req.QualityProfileID, req.RequestedAt.UTC())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return model.Request{}, fmt.Errorf("pending request already exists for user %d book %d: %w",
				req.UserID, req.BookID, model.ErrConflict)
		}
		return model.Request{}, fmt.Errorf("insert request: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Request{}, err
	}
	return r.GetByID(ctx, id)
}

func (r *RequestRepo) GetByID(ctx context.Context, id int64) (model.Request, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Request{}, fmt.Errorf("request %d: %w", id, model.ErrNotFound)
	}
	return req, err
}

func (r *RequestRepo) List(ctx context.Context) ([]model.Request, error) {
	return r.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests ORDER BY id`)
}

func (r *RequestRepo) ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.Request, error) {
	return r.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE status = ? ORDER BY id`, string(status))
}

func (r *RequestRepo) MarkProcessing(ctx context.Context, id, externalAuthorID int64, externalBookID string, at time.Time) error {
	return r.update(ctx, id, `
		UPDATE requests
		SET status = ?, external_author_id = ?, external_book_id = ?, processed_at = ?
		WHERE id = ?`,
		string(model.StatusProcessing), externalAuthorID, externalBookID, at.UTC(), id)
}

func (r *RequestRepo) MarkAvailable(ctx context.Context, id int64, at time.Time) error {
	// completed_at is written once, on the transition; a later poll that
	// re-observes the file must not move it.
	return r.update(ctx, id, `
		UPDATE requests SET status = ?, completed_at = ?
		WHERE id = ? AND status != ?`,
		string(model.StatusAvailable), at.UTC(), id, string(model.StatusAvailable))
}

func (r *RequestRepo) Decline(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id, `
		UPDATE requests
		SET status = ?, processed_at = ?, external_author_id = NULL, external_book_id = NULL
		WHERE id = ?`,
		string(model.StatusDeclined), at.UTC(), id)
}

func (r *RequestRepo) TouchPolled(ctx context.Context, id int64, at time.Time) error {
	return r.update(ctx, id,
		`UPDATE requests SET last_polled_at = ? WHERE id = ?`, at.UTC(), id)
}

func (r *RequestRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete request %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("request %d: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *RequestRepo) update(ctx context.Context, id int64, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update request %d: %w", id, err)
	}
	// MarkAvailable's no-op re-transition also lands here with zero rows,
	// which is fine: the row either moved or was already there.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *RequestRepo) queryRequests(ctx context.Context, query string, args ...any) ([]model.Request, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query requests: %w", err)
	}
	defer rows.Close()

	var out []model.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (model.Request, error) {
	var (
		req         model.Request
		status      string
		extAuthorID sql.NullInt64
		extBookID   sql.NullString
		processedAt sql.NullTime
		completedAt sql.NullTime
		lastPolled  sql.NullTime
	)
	err := row.Scan(&req.ID, &req.UserID, &req.BookID, &status, &req.QualityProfileID,
		&extAuthorID, &extBookID,
		&req.RequestedAt, &processedAt, &completedAt, &lastPolled)
	if err != nil {
		return model.Request{}, err
	}
	req.Status = model.RequestStatus(status)
	if extAuthorID.Valid {
		req.ExternalAuthorID = &extAuthorID.Int64
	}
	if extBookID.Valid {
		req.ExternalBookID = &extBookID.String
	}
	if processedAt.Valid {
		req.ProcessedAt = &processedAt.Time
	}
	if completedAt.Valid {
		req.CompletedAt = &completedAt.Time
	}
	if lastPolled.Valid {
		req.LastPolledAt = &lastPolled.Time
	}
	return req, nil
}

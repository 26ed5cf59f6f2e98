package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// CatalogRepo backs the metadata-cache port with the local catalog_books
// table. It only needs to answer "what are the title/author/ISBN for this
// book id"; the searchable cache proper lives elsewhere.
type CatalogRepo struct {
	db *sql.DB
}

func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

func (r *CatalogRepo) GetBookByID(ctx context.Context, id int64) (model.CatalogBook, error) {
	var (
		b    model.CatalogBook
		isbn sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, author, isbn FROM catalog_books WHERE id = ?`, id).
		Scan(&b.ID, &b.Title, &b.Author, &isbn)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CatalogBook{}, fmt.Errorf("catalog book %d: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return model.CatalogBook{}, fmt.Errorf("get catalog book %d: %w", id, err)
	}
	if isbn.Valid {
		b.ISBN = &isbn.String
	}
	return b, nil
}

func (r *CatalogRepo) List(ctx context.Context) ([]model.CatalogBook, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, author, isbn FROM catalog_books ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list catalog books: %w", err)
	}
	defer rows.Close()

	var out []model.CatalogBook
	for rows.Next() {
		var (
			b    model.CatalogBook
			isbn sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &isbn); err != nil {
			return nil, err
		}
		if isbn.Valid {
			b.ISBN = &isbn.String
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *CatalogRepo) Add(ctx context.Context, b model.CatalogBook) (model.CatalogBook, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO catalog_books (title, author, isbn) VALUES (?, ?, ?)`,
		b.Title, b.Author, b.ISBN)
	if err != nil {
		return model.CatalogBook{}, fmt.Errorf("insert catalog book: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.CatalogBook{}, err
	}
	b.ID = id
	return b, nil
}

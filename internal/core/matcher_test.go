//go:build unit

package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordank1977/mimirr/internal/core/model"
	"github.com/jordank1977/mimirr/pkg/util"
)

func TestMatch_AuthorNotFound_SkipsBookLookup(t *testing.T) {
	lib := &mockLibrary{
		LookupAuthorFn: func(string) ([]model.Author, error) { return nil, nil },
	}
	svc := newTestService(newMemRepo(), mockCatalog{}, lib, nil, configuredSettings())

	_, err := svc.matchAuthorAndBook(context.Background(), "The Hobbit", "Tolkien", nil)
	require.ErrorIs(t, err, model.ErrAuthorNotFound)
	assert.Equal(t, []string{"LookupAuthor:Tolkien"}, lib.calls())
}

func TestMatch_BookNotFound(t *testing.T) {
	lib := &mockLibrary{
		LookupAuthorFn: func(string) ([]model.Author, error) {
			return []model.Author{{ForeignAuthorID: "a1", AuthorName: "Tolkien"}}, nil
		},
		LookupBookFn: func(string) ([]model.Book, error) { return nil, nil },
	}
	svc := newTestService(newMemRepo(), mockCatalog{}, lib, nil, configuredSettings())

	_, err := svc.matchAuthorAndBook(context.Background(), "The Hobbit", "Tolkien", nil)
	require.ErrorIs(t, err, model.ErrBookNotFound)
}

func TestMatch_ISBNFallsBackToTitleAuthor(t *testing.T) {
	lib := &mockLibrary{
		LookupAuthorFn: func(string) ([]model.Author, error) {
			return []model.Author{{ForeignAuthorID: "a1", AuthorName: "Tolkien"}}, nil
		},
		LookupBookFn: func(term string) ([]model.Book, error) {
			if term == "9780261102217" {
				return nil, nil
			}
			return []model.Book{{ForeignBookID: "b1", Title: "The Hobbit"}}, nil
		},
	}
	svc := newTestService(newMemRepo(), mockCatalog{}, lib, nil, configuredSettings())

	res, err := svc.matchAuthorAndBook(context.Background(), "The Hobbit", "Tolkien", util.GetPtr("9780261102217"))
	require.NoError(t, err)
	assert.Equal(t, "b1", res.Book.ForeignBookID)
	assert.Contains(t, lib.calls(), "LookupBook:9780261102217")
	assert.Contains(t, lib.calls(), "LookupBook:The Hobbit Tolkien")
}

func TestMatch_AuthorReconciledFromBook(t *testing.T) {
	lib := &mockLibrary{
		LookupAuthorFn: func(string) ([]model.Author, error) {
			return []model.Author{{ForeignAuthorID: "A1", AuthorName: "Jane Doe"}}, nil
		},
		LookupBookFn: func(string) ([]model.Book, error) {
			return []model.Book{{
				ForeignBookID: "b1",
				Title:         "Some Novel",
				Author:        &model.Author{ForeignAuthorID: "A2", AuthorName: "Jane B. Doe"},
			}}, nil
		},
	}
	svc := newTestService(newMemRepo(), mockCatalog{}, lib, nil, configuredSettings())

	res, err := svc.matchAuthorAndBook(context.Background(), "Some Novel", "Jane Doe", nil)
	require.NoError(t, err)
	assert.Equal(t, "A2", res.Author.ForeignAuthorID)
	assert.Equal(t, "Jane B. Doe", res.Author.AuthorName)
}

func TestMatch_KeepsLookupAuthorWhenBookAgrees(t *testing.T) {
	lib := &mockLibrary{
		LookupAuthorFn: func(string) ([]model.Author, error) {
			return []model.Author{{ForeignAuthorID: "A1", AuthorName: "Jane Doe"}}, nil
		},
		LookupBookFn: func(string) ([]model.Book, error) {
			return []model.Book{{
				ForeignBookID: "b1",
				Title:         "Some Novel",
				Author:        &model.Author{ForeignAuthorID: "A1", AuthorName: "Jane Doe"},
			}}, nil
		},
	}
	svc := newTestService(newMemRepo(), mockCatalog{}, lib, nil, configuredSettings())

	res, err := svc.matchAuthorAndBook(context.Background(), "Some Novel", "Jane Doe", nil)
	require.NoError(t, err)
	assert.Equal(t, "A1", res.Author.ForeignAuthorID)
}

func TestMatch_EditionSelection(t *testing.T) {
	lib := &mockLibrary{
		LookupAuthorFn: func(string) ([]model.Author, error) {
			return []model.Author{{ForeignAuthorID: "a1", AuthorName: "Tolkien"}}, nil
		},
		LookupBookFn: func(string) ([]model.Book, error) {
			return []model.Book{{
				ForeignBookID: "b1",
				Title:         "The Hobbit",
				Editions: []model.Edition{
					{ForeignEditionID: "e1"},
					{ForeignEditionID: "e2", Monitored: true},
				},
			}}, nil
		},
	}
	svc := newTestService(newMemRepo(), mockCatalog{}, lib, nil, configuredSettings())

	res, err := svc.matchAuthorAndBook(context.Background(), "The Hobbit", "Tolkien", nil)
	require.NoError(t, err)
	assert.Equal(t, "e1", res.EditionID)
	assert.True(t, res.Book.Editions[0].Monitored)
	assert.False(t, res.Book.Editions[1].Monitored)
}

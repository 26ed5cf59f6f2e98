//go:build unit

package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordank1977/mimirr/internal/core/model"
	"github.com/jordank1977/mimirr/pkg/util"
)

func TestCatalogRepo_AddAndGet(t *testing.T) {
	repo := NewCatalogRepo(testDB(t))
	ctx := context.Background()

	added, err := repo.Add(ctx, model.CatalogBook{
		Title: "The Hobbit", Author: "J.R.R. Tolkien", ISBN: util.GetPtr("9780261102217"),
	})
	require.NoError(t, err)
	assert.NotZero(t, added.ID)

	got, err := repo.GetBookByID(ctx, added.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit", got.Title)
	assert.Equal(t, "J.R.R. Tolkien", got.Author)
	require.NotNil(t, got.ISBN)
	assert.Equal(t, "9780261102217", *got.ISBN)

	_, err = repo.GetBookByID(ctx, 999)
	require.ErrorIs(t, err, model.ErrNotFound)
}

func TestCatalogRepo_NullISBN(t *testing.T) {
	repo := NewCatalogRepo(testDB(t))
	ctx := context.Background()

	added, err := repo.Add(ctx, model.CatalogBook{Title: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)

	got, err := repo.GetBookByID(ctx, added.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ISBN)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

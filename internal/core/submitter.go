package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// monitorNone is the author-level monitoring mode: the explicit
// BooksToMonitor allow-list is the only thing that may pull books in.
// Adding an author must never silently monitor their whole back-catalog.
const monitorNone = "none"

// submit performs the idempotent "ensure this author and this specific
// book are registered and monitored" operation and returns the library
// manager's author id. "Already exists" is an expected branch: a second
// call with the same match converges to the same author and the same
// single monitored book.
func (s *Service) submit(ctx context.Context, match model.MatchResult, qualityProfileID int64) (int64, error) {
	roots, err := s.Library.RootFolders(ctx)
	if err != nil {
		return 0, fmt.Errorf("root folders: %w", err)
	}
	if len(roots) == 0 {
		return 0, model.ErrNoRootFolder
	}

	add := model.Author{
		ForeignAuthorID:  match.Author.ForeignAuthorID,
		AuthorName:       match.Author.AuthorName,
		Monitored:        true,
		QualityProfileID: qualityProfileID,
		RootFolderPath:   roots[0].Path,
		AddOptions: &model.AddAuthor{
			Monitor:               monitorNone,
			BooksToMonitor:        []string{match.Book.ForeignBookID},
			SearchForMissingBooks: false,
		},
	}

	var authorID int64
	created, err := s.Library.AddAuthor(ctx, add)
	switch {
	case err == nil:
		authorID = created.ID
		// Accelerate metadata population for the fresh author record.
		// Fire and forget: the manager refreshes on its own schedule
		// anyway.
		if rerr := s.Library.RefreshAuthor(ctx, authorID); rerr != nil {
			s.log.Warn("refresh author failed",
				"externalAuthorId", authorID, "error", rerr)
		}
	case errors.Is(err, model.ErrAuthorExists):
		authorID, err = s.adoptExistingAuthor(ctx, match.Author, qualityProfileID)
		if err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("add author %q: %w", match.Author.AuthorName, err)
	}

	// The allow-list usually covers this, but an adopted author may not
	// know the book yet, or may carry it unmonitored.
	s.ensureBookMonitored(ctx, authorID, match)

	return authorID, nil
}

// adoptExistingAuthor recovers the library manager's id for an author the
// add call reported as already present, then idempotently aligns its
// monitoring flag and quality profile with the desired state.
func (s *Service) adoptExistingAuthor(ctx context.Context, want model.Author, qualityProfileID int64) (int64, error) {
	authors, err := s.Library.LookupAuthor(ctx, want.AuthorName)
	if err != nil {
		return 0, fmt.Errorf("lookup existing author %q: %w", want.AuthorName, err)
	}
	for _, a := range authors {
		if a.ID == 0 || a.ForeignAuthorID != want.ForeignAuthorID {
			continue
		}
		if a.Monitored && a.QualityProfileID == qualityProfileID {
			return a.ID, nil
		}
		a.Monitored = true
		a.QualityProfileID = qualityProfileID
		updated, err := s.Library.UpdateAuthor(ctx, a)
		if err != nil {
			return 0, fmt.Errorf("update existing author %q: %w", want.AuthorName, err)
		}
		return updated.ID, nil
	}
	return 0, fmt.Errorf("author %q reported as existing but not found on lookup: %w",
		want.AuthorName, model.ErrUpstream)
}

// ensureBookMonitored verifies the matched book is present and monitored
// under the author. Failures here are degraded outcomes, not submission
// failures: the manager's own background refresh may still surface the
// book, and the author registration already succeeded.
func (s *Service) ensureBookMonitored(ctx context.Context, authorID int64, match model.MatchResult) {
	books, err := s.Library.BooksByAuthor(ctx, authorID)
	if err != nil {
		s.log.Warn("degraded submission: list author books failed",
			"externalAuthorId", authorID, "foreignBookId", match.Book.ForeignBookID, "error", err)
		return
	}

	for _, b := range books {
		if b.ForeignBookID != match.Book.ForeignBookID {
			continue
		}
		if b.Monitored {
			return
		}
		b.Monitored = true
		if _, err := s.Library.UpdateBook(ctx, b); err != nil {
			s.log.Warn("degraded submission: monitor existing book failed",
				"externalAuthorId", authorID, "foreignBookId", b.ForeignBookID, "error", err)
		}
		return
	}

	add := match.Book
	add.ID = 0
	add.AuthorID = authorID
	add.Monitored = true
	add.AddOptions = &model.AddBook{SearchForNewBook: true}
	if _, err := s.Library.AddBook(ctx, add); err != nil {
		s.log.Warn("degraded submission: explicit book add failed",
			"externalAuthorId", authorID, "foreignBookId", add.ForeignBookID,
			"title", add.Title, "error", err)
	}
}

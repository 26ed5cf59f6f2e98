package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// matchAuthorAndBook resolves a human-readable title/author (and optional
// ISBN) into the library manager's namespace.
//
// The author lookup runs first and is a hard gate: no results means the
// manager's metadata graph has nothing for this author and there is no
// point scanning book candidates. Book candidates are then filtered to
// the requested author and classified by the title strategy, strictest
// tier first.
func (s *Service) matchAuthorAndBook(ctx context.Context, title, authorName string, isbn *string) (model.MatchResult, error) {
	authors, err := s.Library.LookupAuthor(ctx, authorName)
	if err != nil {
		return model.MatchResult{}, fmt.Errorf("author lookup %q: %w", authorName, err)
	}
	if len(authors) == 0 {
		return model.MatchResult{}, fmt.Errorf("%q: %w", authorName, model.ErrAuthorNotFound)
	}
	author := authors[0]

	candidates, err := s.lookupBookCandidates(ctx, title, authorName, isbn)
	if err != nil {
		return model.MatchResult{}, err
	}

	book, tier, ok := s.selectCandidate(title, authorName, candidates)
	if !ok {
		return model.MatchResult{}, fmt.Errorf("%q by %q: %w", title, authorName, model.ErrBookNotFound)
	}
	s.log.Debug("book matched",
		"title", title, "matchedTitle", book.Title, "tier", tier.String())

	// The metadata graph can hang the same title off a different author
	// variant than the name-only lookup produced. The book's embedded
	// author is authoritative; registering the lookup author instead
	// would monitor the wrong profile.
	if book.Author != nil && book.Author.ForeignAuthorID != "" &&
		book.Author.ForeignAuthorID != author.ForeignAuthorID {
		s.log.Info("author reconciled from matched book",
			"lookupAuthorId", author.ForeignAuthorID,
			"bookAuthorId", book.Author.ForeignAuthorID,
			"bookAuthorName", book.Author.AuthorName)
		author = *book.Author
	}

	editionID := pickMonitoredEdition(&book)
	return model.MatchResult{Author: author, Book: book, EditionID: editionID}, nil
}

// lookupBookCandidates queries by ISBN when one is present, falling back
// to "<title> <author>" if the ISBN query comes back empty.
func (s *Service) lookupBookCandidates(ctx context.Context, title, authorName string, isbn *string) ([]model.Book, error) {
	termFallback := strings.TrimSpace(title + " " + authorName)
	term := termFallback
	if isbn != nil && *isbn != "" {
		term = *isbn
	}

	books, err := s.Library.LookupBook(ctx, term)
	if err != nil {
		return nil, fmt.Errorf("book lookup %q: %w", term, err)
	}
	if len(books) == 0 && term != termFallback {
		books, err = s.Library.LookupBook(ctx, termFallback)
		if err != nil {
			return nil, fmt.Errorf("book lookup %q: %w", termFallback, err)
		}
	}
	return books, nil
}

// selectCandidate applies the author-overlap filter, then walks the match
// tiers strictest first. Ties within a tier resolve to list order.
func (s *Service) selectCandidate(title, authorName string, books []model.Book) (model.Book, model.MatchTier, bool) {
	candidates := make([]model.MatchCandidate, 0, len(books))
	for _, b := range books {
		if b.Author != nil && b.Author.AuthorName != "" &&
			!authorNameOverlaps(authorName, b.Author.AuthorName) {
			continue
		}
		candidates = append(candidates, model.MatchCandidate{
			Book: b,
			Tier: s.Titles.Classify(title, b.Title),
		})
	}
	for tier := model.TierExact; tier < model.TierNone; tier++ {
		for _, c := range candidates {
			if c.Tier == tier {
				return c.Book, tier, true
			}
		}
	}
	return model.Book{}, model.TierNone, false
}

// pickMonitoredEdition leaves exactly one edition monitored, which the
// library manager requires to accept an addition. Books that arrive
// without an editions list get a single placeholder keyed by the book's
// own foreign id.
func pickMonitoredEdition(book *model.Book) string {
	if len(book.Editions) == 0 {
		book.Editions = []model.Edition{{ForeignEditionID: book.ForeignBookID, Monitored: true}}
		return book.ForeignBookID
	}
	for i := range book.Editions {
		book.Editions[i].Monitored = i == 0
	}
	return book.Editions[0].ForeignEditionID
}

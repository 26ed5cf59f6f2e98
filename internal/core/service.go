package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// RequestRepository is the Request Store port. It owns request rows
// exclusively; writes are last-write-wins.
type RequestRepository interface {
	Create(ctx context.Context, r model.Request) (model.Request, error)
	GetByID(ctx context.Context, id int64) (model.Request, error)
	List(ctx context.Context) ([]model.Request, error)
	ListByStatus(ctx context.Context, status model.RequestStatus) ([]model.Request, error)
	MarkProcessing(ctx context.Context, id, externalAuthorID int64, externalBookID string, at time.Time) error
	MarkAvailable(ctx context.Context, id int64, at time.Time) error
	Decline(ctx context.Context, id int64, at time.Time) error
	TouchPolled(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// LibraryClient is the library-manager port. All calls are authenticated,
// bounded-timeout HTTP round trips; the adapter classifies the add-author
// conflict as model.ErrAuthorExists.
type LibraryClient interface {
	LookupAuthor(ctx context.Context, term string) ([]model.Author, error)
	LookupBook(ctx context.Context, term string) ([]model.Book, error)
	RootFolders(ctx context.Context) ([]model.RootFolder, error)
	AddAuthor(ctx context.Context, author model.Author) (model.Author, error)
	UpdateAuthor(ctx context.Context, author model.Author) (model.Author, error)
	BooksByAuthor(ctx context.Context, authorID int64) ([]model.Book, error)
	AddBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	RefreshAuthor(ctx context.Context, authorID int64) error
}

// BookCatalog supplies the human-readable fields the matcher needs. The
// searchable cache behind it is someone else's problem.
type BookCatalog interface {
	GetBookByID(ctx context.Context, id int64) (model.CatalogBook, error)
}

// Notifier dispatches fulfillment notifications. Failures must never roll
// back a status transition already committed.
type Notifier interface {
	Notify(ctx context.Context, userIDs []int64, kind, subject, detail string) error
}

// SettingsStore supplies the library manager's connection settings.
type SettingsStore interface {
	Library() model.LibrarySettings
}

type Service struct {
	Repo     RequestRepository
	Catalog  BookCatalog
	Library  LibraryClient
	Notifier Notifier
	Settings SettingsStore
	Titles   TitleMatchStrategy
	Lists    *BookListCache

	log *slog.Logger
	now func() time.Time
}

func NewService(repo RequestRepository, catalog BookCatalog, library LibraryClient, notifier Notifier, settings SettingsStore, lists *BookListCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if lists == nil {
		lists = NewBookListCache(0)
	}
	return &Service{
		Repo:     repo,
		Catalog:  catalog,
		Library:  library,
		Notifier: notifier,
		Settings: settings,
		Titles:   NewTieredTitleMatcher(),
		Lists:    lists,
		log:      logger,
		now:      time.Now,
	}
}

// CreateRequest files a new pending request for a catalog book. At most
// one pending request may exist per (user, book); the repository enforces
// that with a conflict error.
func (s *Service) CreateRequest(ctx context.Context, in model.NewRequestInput) (model.Request, error) {
	if in.UserID <= 0 || in.BookID <= 0 || in.QualityProfileID <= 0 {
		return model.Request{}, model.ErrValidation
	}
	if _, err := s.Catalog.GetBookByID(ctx, in.BookID); err != nil {
		return model.Request{}, fmt.Errorf("catalog book %d: %w", in.BookID, model.ErrNotFound)
	}
	r := model.Request{
		UserID:           in.UserID,
		BookID:           in.BookID,
		Status:           model.StatusPending,
		QualityProfileID: in.QualityProfileID,
		RequestedAt:      s.now(),
	}
	return s.Repo.Create(ctx, r)
}

// SubmitApproved runs the approval path for one request: match the book
// in the library manager's namespace, register it there, and move the
// request to processing. On any failure the request stays pending and the
// reason is returned to the caller; re-invocation is safe because the
// whole path is idempotent.
//
// A request already processing or available is a no-op (racing poll wins).
func (s *Service) SubmitApproved(ctx context.Context, requestID int64) (model.Request, error) {
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return model.Request{}, err
	}
	switch req.Status {
	case model.StatusProcessing, model.StatusAvailable:
		return req, nil
	case model.StatusDeclined:
		return model.Request{}, fmt.Errorf("request %d is declined: %w", requestID, model.ErrConflict)
	}
	if !s.Settings.Library().Configured() {
		return model.Request{}, model.ErrNotConfigured
	}

	book, err := s.Catalog.GetBookByID(ctx, req.BookID)
	if err != nil {
		return model.Request{}, fmt.Errorf("catalog book %d: %w", req.BookID, err)
	}

	match, err := s.matchAuthorAndBook(ctx, book.Title, book.Author, book.ISBN)
	if err != nil {
		s.log.Warn("match failed",
			"requestId", req.ID, "title", book.Title, "author", book.Author, "error", err)
		return model.Request{}, err
	}

	authorID, err := s.submit(ctx, match, req.QualityProfileID)
	if err != nil {
		s.log.Error("submission failed",
			"requestId", req.ID, "title", book.Title, "author", match.Author.AuthorName, "error", err)
		return model.Request{}, err
	}

	if err := s.Repo.MarkProcessing(ctx, req.ID, authorID, match.Book.ForeignBookID, s.now()); err != nil {
		return model.Request{}, err
	}
	s.log.Info("request submitted",
		"requestId", req.ID, "title", book.Title,
		"externalAuthorId", authorID, "foreignBookId", match.Book.ForeignBookID)
	return s.Repo.GetByID(ctx, req.ID)
}

// DeclineRequest declines a pending request, or a stuck processing one
// (the only way out of processing besides fulfillment).
func (s *Service) DeclineRequest(ctx context.Context, requestID int64) (model.Request, error) {
	req, err := s.Repo.GetByID(ctx, requestID)
	if err != nil {
		return model.Request{}, err
	}
	if req.Status != model.StatusPending && req.Status != model.StatusProcessing {
		return model.Request{}, fmt.Errorf("request %d is %s: %w", requestID, req.Status, model.ErrConflict)
	}
	if err := s.Repo.Decline(ctx, requestID, s.now()); err != nil {
		return model.Request{}, err
	}
	return s.Repo.GetByID(ctx, requestID)
}

func (s *Service) DeleteRequest(ctx context.Context, requestID int64) error {
	return s.Repo.Delete(ctx, requestID)
}

func (s *Service) GetRequest(ctx context.Context, requestID int64) (model.Request, error) {
	return s.Repo.GetByID(ctx, requestID)
}

func (s *Service) ListRequests(ctx context.Context) ([]model.Request, error) {
	return s.Repo.List(ctx)
}

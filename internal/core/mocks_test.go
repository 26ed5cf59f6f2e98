//go:build unit

package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// Test doubles shared by the core tests. The library mock records calls
// so tests can assert which endpoints ran and in what order.

type mockLibrary struct {
	mu    sync.Mutex
	Calls []string

	LookupAuthorFn  func(term string) ([]model.Author, error)
	LookupBookFn    func(term string) ([]model.Book, error)
	RootFoldersFn   func() ([]model.RootFolder, error)
	AddAuthorFn     func(a model.Author) (model.Author, error)
	UpdateAuthorFn  func(a model.Author) (model.Author, error)
	BooksByAuthorFn func(authorID int64) ([]model.Book, error)
	AddBookFn       func(b model.Book) (model.Book, error)
	UpdateBookFn    func(b model.Book) (model.Book, error)
	RefreshAuthorFn func(authorID int64) error
}

func (m *mockLibrary) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
}

func (m *mockLibrary) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Calls...)
}

func (m *mockLibrary) LookupAuthor(_ context.Context, term string) ([]model.Author, error) {
	m.record("LookupAuthor:" + term)
	if m.LookupAuthorFn == nil {
		return nil, nil
	}
	return m.LookupAuthorFn(term)
}

func (m *mockLibrary) LookupBook(_ context.Context, term string) ([]model.Book, error) {
	m.record("LookupBook:" + term)
	if m.LookupBookFn == nil {
		return nil, nil
	}
	return m.LookupBookFn(term)
}

func (m *mockLibrary) RootFolders(_ context.Context) ([]model.RootFolder, error) {
	m.record("RootFolders")
	if m.RootFoldersFn == nil {
		return []model.RootFolder{{Path: "/books"}}, nil
	}
	return m.RootFoldersFn()
}

func (m *mockLibrary) AddAuthor(_ context.Context, a model.Author) (model.Author, error) {
	m.record("AddAuthor:" + a.ForeignAuthorID)
	if m.AddAuthorFn == nil {
		a.ID = 1
		return a, nil
	}
	return m.AddAuthorFn(a)
}

func (m *mockLibrary) UpdateAuthor(_ context.Context, a model.Author) (model.Author, error) {
	m.record("UpdateAuthor:" + a.ForeignAuthorID)
	if m.UpdateAuthorFn == nil {
		return a, nil
	}
	return m.UpdateAuthorFn(a)
}

func (m *mockLibrary) BooksByAuthor(_ context.Context, authorID int64) ([]model.Book, error) {
	m.record(fmt.Sprintf("BooksByAuthor:%d", authorID))
	if m.BooksByAuthorFn == nil {
		return nil, nil
	}
	return m.BooksByAuthorFn(authorID)
}

func (m *mockLibrary) AddBook(_ context.Context, b model.Book) (model.Book, error) {
	m.record("AddBook:" + b.ForeignBookID)
	if m.AddBookFn == nil {
		return b, nil
	}
	return m.AddBookFn(b)
}

func (m *mockLibrary) UpdateBook(_ context.Context, b model.Book) (model.Book, error) {
	m.record("UpdateBook:" + b.ForeignBookID)
	if m.UpdateBookFn == nil {
		return b, nil
	}
	return m.UpdateBookFn(b)
}

func (m *mockLibrary) RefreshAuthor(_ context.Context, authorID int64) error {
	m.record(fmt.Sprintf("RefreshAuthor:%d", authorID))
	if m.RefreshAuthorFn == nil {
		return nil
	}
	return m.RefreshAuthorFn(authorID)
}

// memRepo is an in-memory RequestRepository for core tests; the SQLite
// implementation has its own tests in the adapter package.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]model.Request
}

func newMemRepo() *memRepo {
	return &memRepo{nextID: 1, rows: make(map[int64]model.Request)}
}

func (r *memRepo) Create(_ context.Context, req model.Request) (model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.UserID == req.UserID && row.BookID == req.BookID && row.Status == model.StatusPending {
			return model.Request{}, model.ErrConflict
		}
	}
	req.ID = r.nextID
	r.nextID++
	r.rows[req.ID] = req
	return req, nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return model.Request{}, model.ErrNotFound
	}
	return row, nil
}

func (r *memRepo) List(_ context.Context) ([]model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Request, 0, len(r.rows))
	for id := int64(1); id < r.nextID; id++ {
		if row, ok := r.rows[id]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memRepo) ListByStatus(_ context.Context, status model.RequestStatus) ([]model.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Request
	for id := int64(1); id < r.nextID; id++ {
		if row, ok := r.rows[id]; ok && row.Status == status {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *memRepo) MarkProcessing(_ context.Context, id, externalAuthorID int64, externalBookID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return model.ErrNotFound
	}
	row.Status = model.StatusProcessing
	row.ExternalAuthorID = &externalAuthorID
	row.ExternalBookID = &externalBookID
	row.ProcessedAt = &at
	r.rows[id] = row
	return nil
}

func (r *memRepo) MarkAvailable(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return model.ErrNotFound
	}
	if row.Status == model.StatusAvailable {
		return nil
	}
	row.Status = model.StatusAvailable
	row.CompletedAt = &at
	r.rows[id] = row
	return nil
}

func (r *memRepo) Decline(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return model.ErrNotFound
	}
	row.Status = model.StatusDeclined
	row.ProcessedAt = &at
	row.ExternalAuthorID = nil
	row.ExternalBookID = nil
	r.rows[id] = row
	return nil
}

func (r *memRepo) TouchPolled(_ context.Context, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return model.ErrNotFound
	}
	row.LastPolledAt = &at
	r.rows[id] = row
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return model.ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

type mockCatalog struct {
	books map[int64]model.CatalogBook
}

func (c mockCatalog) GetBookByID(_ context.Context, id int64) (model.CatalogBook, error) {
	b, ok := c.books[id]
	if !ok {
		return model.CatalogBook{}, model.ErrNotFound
	}
	return b, nil
}

type mockNotifier struct {
	mu    sync.Mutex
	Sent  []string
	Fail  bool
	Kinds []string
}

func (n *mockNotifier) Notify(_ context.Context, userIDs []int64, kind, subject, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Fail {
		return fmt.Errorf("dispatch down")
	}
	n.Sent = append(n.Sent, subject)
	n.Kinds = append(n.Kinds, kind)
	return nil
}

type mockSettings struct {
	s model.LibrarySettings
}

func (m mockSettings) Library() model.LibrarySettings { return m.s }

func configuredSettings() mockSettings {
	return mockSettings{s: model.LibrarySettings{BaseURL: "http://readarr.local", APIKey: "key"}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo RequestRepository, catalog BookCatalog, lib LibraryClient, notifier Notifier, settings SettingsStore) *Service {
	if notifier == nil {
		notifier = &mockNotifier{}
	}
	svc := NewService(repo, catalog, lib, notifier, settings, NewBookListCache(0), quietLogger())
	return svc
}

package model

import (
	"errors"
	"time"
)

// All core models live here together for simplicity.

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusApproved   RequestStatus = "approved"
	StatusDeclined   RequestStatus = "declined"
	StatusProcessing RequestStatus = "processing"
	StatusAvailable  RequestStatus = "available"
)

var (
	ErrValidation = errors.New("validation")
	ErrConflict   = errors.New("conflict")
	ErrNotFound   = errors.New("not_found")
	ErrUpstream   = errors.New("upstream")

	// Matching failures. Terminal for one submission attempt; the
	// request stays pending so the admin can fix the data and retry.
	ErrAuthorNotFound = errors.New("author not found in library manager")
	ErrBookNotFound   = errors.New("book not found in library manager")

	// ErrNoRootFolder means the library manager has no storage root
	// configured, so nothing can be added to it.
	ErrNoRootFolder = errors.New("library manager has no root folder configured")

	// ErrAuthorExists is the transport adapter's classification of the
	// library manager's add-author conflict. The submitter treats it as
	// an expected branch, never as a failure.
	ErrAuthorExists = errors.New("author already exists in library manager")

	// ErrNotConfigured means the library manager URL or API key is
	// missing from settings.
	ErrNotConfigured = errors.New("library manager is not configured")
)

// Request is the unit of work tracked end to end: one user asking for one
// catalog book at one quality tier.
//
// ExternalAuthorID and ExternalBookID are the library manager's ids,
// recorded when submission succeeds. Both are non-nil exactly when the
// status is processing or available.
type Request struct {
	ID               int64         `json:"id"`
	UserID           int64         `json:"userId"`
	BookID           int64         `json:"bookId"` // catalog id, not a library-manager id
	Status           RequestStatus `json:"status"`
	QualityProfileID int64         `json:"qualityProfileId"`
	ExternalAuthorID *int64        `json:"externalAuthorId,omitempty"`
	ExternalBookID   *string       `json:"externalBookId,omitempty"`
	RequestedAt      time.Time     `json:"requestedAt"`
	ProcessedAt      *time.Time    `json:"processedAt,omitempty"`
	CompletedAt      *time.Time    `json:"completedAt,omitempty"`
	LastPolledAt     *time.Time    `json:"lastPolledAt,omitempty"`
}

// CatalogBook is the metadata-cache view of a book: just the fields the
// matcher needs to resolve it in the library manager's namespace.
type CatalogBook struct {
	ID     int64   `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	ISBN   *string `json:"isbn,omitempty"`
}

// Author is the library manager's author record. ID is the manager's own
// database id (zero until the author is in its library); ForeignAuthorID
// is the metadata-namespace id.
type Author struct {
	ID               int64      `json:"id,omitempty"`
	ForeignAuthorID  string     `json:"foreignAuthorId"`
	AuthorName       string     `json:"authorName"`
	Monitored        bool       `json:"monitored"`
	QualityProfileID int64      `json:"qualityProfileId,omitempty"`
	RootFolderPath   string     `json:"rootFolderPath,omitempty"`
	Books            []Book     `json:"books,omitempty"`
	AddOptions       *AddAuthor `json:"addOptions,omitempty"`
}

// AddAuthor carries the library manager's add-time options. Monitor "none"
// plus an explicit BooksToMonitor list keeps the author's back-catalog out
// of monitoring.
type AddAuthor struct {
	Monitor               string   `json:"monitor"`
	BooksToMonitor        []string `json:"booksToMonitor,omitempty"`
	SearchForMissingBooks bool     `json:"searchForMissingBooks"`
}

// Book is the library manager's book record.
type Book struct {
	ID            int64           `json:"id,omitempty"`
	ForeignBookID string          `json:"foreignBookId"`
	Title         string          `json:"title"`
	Monitored     bool            `json:"monitored"`
	Editions      []Edition       `json:"editions,omitempty"`
	Author        *Author         `json:"author,omitempty"`
	AuthorID      int64           `json:"authorId,omitempty"`
	Statistics    *BookStatistics `json:"statistics,omitempty"`
	Grabbed       bool            `json:"grabbed,omitempty"`
	AddOptions    *AddBook        `json:"addOptions,omitempty"`
}

type AddBook struct {
	SearchForNewBook bool `json:"searchForNewBook"`
}

type Edition struct {
	ForeignEditionID string `json:"foreignEditionId"`
	Monitored        bool   `json:"monitored"`
}

type BookStatistics struct {
	BookFileCount int `json:"bookFileCount"`
}

type RootFolder struct {
	Path string `json:"path"`
}

// MatchTier classifies how a candidate title relates to the query title.
// Lower is better; ties within a tier resolve to list order.
type MatchTier int

const (
	TierExact MatchTier = iota
	TierNormalizedExact
	TierSubstring
	TierNormalizedSubstring
	TierNone
)

func (t MatchTier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierNormalizedExact:
		return "normalized-exact"
	case TierSubstring:
		return "substring"
	case TierNormalizedSubstring:
		return "normalized-substring"
	default:
		return "none"
	}
}

// MatchCandidate is ephemeral: one lookup result plus its classification,
// used only to rank candidates inside a single matching call.
type MatchCandidate struct {
	Book Book
	Tier MatchTier
}

// MatchResult is the matcher's output: the resolved author, the resolved
// book with its edition list already adjusted to carry exactly one
// monitored edition, and the id of that edition.
type MatchResult struct {
	Author    Author
	Book      Book
	EditionID string
}

// LibrarySettings is what the settings store supplies for reaching the
// library manager.
type LibrarySettings struct {
	BaseURL string
	APIKey  string
}

func (s LibrarySettings) Configured() bool {
	return s.BaseURL != "" && s.APIKey != ""
}

// PollDetail records one request's outcome inside a poll batch.
type PollDetail struct {
	RequestID int64  `json:"requestId"`
	State     string `json:"state"` // available | downloading | missing | error
	Error     string `json:"error,omitempty"`
}

// PollSummary aggregates one pollAll run. RunID correlates the summary
// with the batch's log lines.
type PollSummary struct {
	RunID   string       `json:"runId"`
	Checked int          `json:"checked"`
	Updated int          `json:"updated"`
	Errors  int          `json:"errors"`
	Details []PollDetail `json:"details,omitempty"`
}

// NewRequestInput is what the API layer supplies when a user files a
// request.
type NewRequestInput struct {
	UserID           int64
	BookID           int64
	QualityProfileID int64
}

package core

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jordank1977/mimirr/internal/core/model"
)

// Poll states reported per request.
const (
	pollStateAvailable   = "available"
	pollStateDownloading = "downloading"
	pollStateMissing     = "missing"
	pollStateError       = "error"
)

// PollAll reconciles every processing request against the library
// manager. Pull-based: the manager offers no completion callback, so a
// request surfaces as available only when a poll observes a downloaded
// file.
//
// Requests are handled sequentially and failures stay isolated: one bad
// lookup never aborts the batch, and an errored request keeps its status.
// LastPolledAt is touched for every request examined, errored or not, so
// operators can see staleness. With the library manager unconfigured the
// whole call is a no-op zero summary.
func (s *Service) PollAll(ctx context.Context) (model.PollSummary, error) {
	summary := model.PollSummary{RunID: uuid.NewString()}
	if !s.Settings.Library().Configured() {
		return summary, nil
	}

	reqs, err := s.Repo.ListByStatus(ctx, model.StatusProcessing)
	if err != nil {
		return summary, fmt.Errorf("list processing requests: %w", err)
	}

	for _, req := range reqs {
		summary.Checked++
		detail := s.pollOne(ctx, req)
		if detail.State == pollStateAvailable {
			summary.Updated++
		}
		if detail.Error != "" {
			summary.Errors++
		}
		summary.Details = append(summary.Details, detail)

		if err := s.Repo.TouchPolled(ctx, req.ID, s.now()); err != nil {
			s.log.Warn("touch lastPolledAt failed",
				"runId", summary.RunID, "requestId", req.ID, "error", err)
		}
	}

	s.log.Info("poll run finished",
		"runId", summary.RunID, "checked", summary.Checked,
		"updated", summary.Updated, "errors", summary.Errors)
	return summary, nil
}

func (s *Service) pollOne(ctx context.Context, req model.Request) model.PollDetail {
	detail := model.PollDetail{RequestID: req.ID}

	if req.ExternalAuthorID == nil || req.ExternalBookID == nil {
		detail.State = pollStateError
		detail.Error = "processing request missing external ids"
		s.log.Error("invariant violation", "requestId", req.ID, "error", detail.Error)
		return detail
	}

	books, err := s.authorBooks(ctx, *req.ExternalAuthorID)
	if err != nil {
		detail.State = pollStateError
		detail.Error = err.Error()
		s.log.Warn("poll lookup failed",
			"requestId", req.ID, "externalAuthorId", *req.ExternalAuthorID, "error", err)
		return detail
	}

	book, ok := findByForeignID(books, *req.ExternalBookID)
	if !ok {
		detail.State = pollStateError
		detail.Error = fmt.Sprintf("book %s not found under author %d during poll",
			*req.ExternalBookID, *req.ExternalAuthorID)
		s.log.Warn("poll book missing",
			"requestId", req.ID, "foreignBookId", *req.ExternalBookID)
		return detail
	}

	switch classifyFulfillment(book) {
	case pollStateAvailable:
		if err := s.Repo.MarkAvailable(ctx, req.ID, s.now()); err != nil {
			detail.State = pollStateError
			detail.Error = err.Error()
			return detail
		}
		detail.State = pollStateAvailable
		s.notifyAvailable(ctx, req)
	case pollStateDownloading:
		detail.State = pollStateDownloading
	default:
		detail.State = pollStateMissing
	}
	return detail
}

// authorBooks fetches an author's book list through the TTL cache, so a
// batch with several requests against the same author hits the manager
// once.
func (s *Service) authorBooks(ctx context.Context, authorID int64) ([]model.Book, error) {
	if books, ok := s.Lists.Get(authorID); ok {
		return books, nil
	}
	books, err := s.Library.BooksByAuthor(ctx, authorID)
	if err != nil {
		return nil, err
	}
	s.Lists.Put(authorID, books)
	return books, nil
}

func findByForeignID(books []model.Book, foreignBookID string) (model.Book, bool) {
	for _, b := range books {
		if b.ForeignBookID == foreignBookID {
			return b, true
		}
	}
	return model.Book{}, false
}

// classifyFulfillment: a downloaded file wins; a grab without a file yet
// means the manager is still working; anything else is simply not there.
func classifyFulfillment(book model.Book) string {
	if book.Statistics != nil && book.Statistics.BookFileCount > 0 {
		return pollStateAvailable
	}
	if book.Grabbed {
		return pollStateDownloading
	}
	return pollStateMissing
}

// notifyAvailable emits the fulfillment notification. The status
// transition is already committed; a failed dispatch is logged and
// dropped.
func (s *Service) notifyAvailable(ctx context.Context, req model.Request) {
	subject := fmt.Sprintf("request %d is available", req.ID)
	detail := "your requested book has finished downloading"
	if book, err := s.Catalog.GetBookByID(ctx, req.BookID); err == nil {
		subject = book.Title
		detail = fmt.Sprintf("%q by %s is now available", book.Title, book.Author)
	}
	if err := s.Notifier.Notify(ctx, []int64{req.UserID}, "request_available", subject, detail); err != nil {
		s.log.Warn("fulfillment notification failed",
			"requestId", req.ID, "userId", req.UserID, "error", err)
	}
}

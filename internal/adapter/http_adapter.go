package adapter

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jordank1977/mimirr/internal/core"
	"github.com/jordank1977/mimirr/internal/core/model"
)

// Handler is the thin HTTP surface the API layer uses to drive the
// engine. No auth, no rendering; lifecycle operations only.
type Handler struct {
	Svc *core.Service
	log *slog.Logger
}

func NewHandler(svc *core.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{Svc: svc, log: logger}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/requests", h.CreateRequest)
		r.Get("/requests", h.ListRequests)
		r.Get("/requests/{id}", h.GetRequest)
		r.Delete("/requests/{id}", h.DeleteRequest)
		r.Post("/requests/{id}/approve", h.ApproveRequest)
		r.Post("/requests/{id}/decline", h.DeclineRequest)
		r.Post("/poll", h.Poll)
	})
	return r
}

type httpError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	e := httpError{}
	e.Error.Code = code
	e.Error.Message = msg
	writeJSON(w, status, e)
}

// writeServiceError maps core sentinel errors onto HTTP statuses. The
// matching failures get 422 so the admin UI can show the reason verbatim.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrConflict):
		writeError(w, http.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, model.ErrAuthorNotFound):
		writeError(w, http.StatusUnprocessableEntity, "AUTHOR_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrBookNotFound):
		writeError(w, http.StatusUnprocessableEntity, "BOOK_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrNoRootFolder), errors.Is(err, model.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", err.Error())
	default:
		writeError(w, http.StatusBadGateway, "UPSTREAM", err.Error())
	}
}

type createRequestBody struct {
	UserID           int64 `json:"userId"`
	BookID           int64 `json:"bookId"`
	QualityProfileID int64 `json:"qualityProfileId"`
}

func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var body createRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid JSON body")
		return
	}
	req, err := h.Svc.CreateRequest(r.Context(), model.NewRequestInput{
		UserID:           body.UserID,
		BookID:           body.BookID,
		QualityProfileID: body.QualityProfileID,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Svc.ListRequests(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if reqs == nil {
		reqs = []model.Request{}
	}
	writeJSON(w, http.StatusOK, reqs)
}

func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.Svc.GetRequest(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	if err := h.Svc.DeleteRequest(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.Svc.SubmitApproved(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) DeclineRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := h.requestID(w, r)
	if !ok {
		return
	}
	req, err := h.Svc.DeclineRequest(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *Handler) Poll(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Svc.PollAll(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) requestID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "VALIDATION", "invalid request id")
		return 0, false
	}
	return id, true
}

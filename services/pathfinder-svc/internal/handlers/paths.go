package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"

	"anyangle/pkg/apperror"
	"anyangle/services/pathfinder-svc/internal/middleware"
	"anyangle/services/pathfinder-svc/internal/search"
	"anyangle/services/pathfinder-svc/internal/service"
)

// PathHandler обрабатывает запросы поиска путей
type PathHandler struct {
	svc *service.Pathfinder
}

// NewPathHandler создаёт handler
func NewPathHandler(svc *service.Pathfinder) *PathHandler {
	return &PathHandler{svc: svc}
}

// PathRequestBody тело POST /v1/paths
type PathRequestBody struct {
	// Grid строки карты, один символ на клетку: '.' свободна, '#' занята
	Grid      []string      `json:"grid"`
	Start     *search.Point `json:"start"`
	Goal      *search.Point `json:"goal"`
	Algorithm string        `json:"algorithm,omitempty"`
	Smoothing string        `json:"smoothing,omitempty"`
	// Trace добавляет в ответ список раскрытых вершин
	Trace bool `json:"trace,omitempty"`
}

// PathResponseBody ответ POST /v1/paths
type PathResponseBody struct {
	*service.PathResponse
	GridHash  string `json:"grid_hash"`
	RequestID string `json:"request_id,omitempty"`
}

// FindPath POST /v1/paths
func (h *PathHandler) FindPath(w http.ResponseWriter, r *http.Request) {
	var body PathRequestBody
	if err := decodeJSON(r, &body); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	v := apperror.NewValidationErrors()
	if body.Start == nil {
		v.AddErrorWithField(apperror.CodeInvalidArgument, "start is required", "start")
	}
	if body.Goal == nil {
		v.AddErrorWithField(apperror.CodeInvalidArgument, "goal is required", "goal")
	}
	if err := v.Err(); err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	g, err := service.ParseGrid(body.Grid)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	resp, err := h.svc.FindPath(r.Context(), &service.PathRequest{
		Grid:      g,
		Start:     *body.Start,
		Goal:      *body.Goal,
		Algorithm: body.Algorithm,
		Smoothing: body.Smoothing,
		Trace:     body.Trace,
	})
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, PathResponseBody{
		PathResponse: resp,
		GridHash:     g.Hash(),
		RequestID:    middleware.GetRequestID(r.Context()),
	})
}

// ListAlgorithms GET /v1/algorithms
func (h *PathHandler) ListAlgorithms(w http.ResponseWriter, _ *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"algorithms": h.svc.Algorithms(),
	})
}

var gridHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// InvalidateGrid DELETE /v1/grids/{hash}/paths
func (h *PathHandler) InvalidateGrid(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if !gridHashPattern.MatchString(hash) {
		middleware.WriteError(w, r, apperror.NewWithField(apperror.CodeInvalidArgument,
			"grid hash must be 64 lowercase hex characters", "hash"))
		return
	}

	removed, err := h.svc.InvalidateGrid(r.Context(), hash)
	if err != nil {
		middleware.WriteError(w, r, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]any{
		"grid_hash": hash,
		"removed":   removed,
	})
}

// decodeJSON читает тело запроса строго: неизвестные поля и мусор после
// объекта считаются ошибкой
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.Wrap(err, apperror.CodeGridTooLarge, "request body is too large").
				WithDetails("limit_bytes", maxErr.Limit)
		case errors.Is(err, io.EOF):
			return apperror.New(apperror.CodeInvalidArgument, "request body is empty")
		default:
			return apperror.Wrap(err, apperror.CodeInvalidArgument, "malformed JSON: "+err.Error())
		}
	}
	if dec.More() {
		return apperror.New(apperror.CodeInvalidArgument, "request body must contain a single JSON object")
	}
	return nil
}

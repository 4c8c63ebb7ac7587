package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"anyangle/pkg/apperror"
	"anyangle/pkg/logger"
)

// HeaderRequestID заголовок с ID запроса
const HeaderRequestID = "X-Request-ID"

// Middleware оборачивает http.Handler
type Middleware func(http.Handler) http.Handler

// Chain применяет middleware так, что первая в списке выполняется первой
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// GetRequestID извлекает request_id из контекста
func GetRequestID(ctx context.Context) string {
	return logger.RequestIDFromContext(ctx)
}

// GenerateRequestID генерирует уникальный ID запроса
func GenerateRequestID() string {
	return uuid.NewString()
}

// RequestID берёт ID из заголовка или генерирует новый, кладёт его в контекст
// и возвращает в ответе
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.ContextWithRequestID(r.Context(), id)))
	})
}

// statusRecorder запоминает код ответа
type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wrote {
		r.status = code
		r.wrote = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wrote = true
	return r.ResponseWriter.Write(b)
}

// Unwrap для http.ResponseController
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// WriteJSON пишет JSON ответ
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Заголовки уже отправлены
		logger.Log.Debug("failed to write response", "error", err)
	}
}

// WriteError пишет ошибку в формате apperror.Body
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := apperror.ToHTTP(err)
	body.RequestID = GetRequestID(r.Context())
	WriteJSON(w, status, body)
}

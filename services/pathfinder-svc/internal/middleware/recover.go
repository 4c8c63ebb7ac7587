package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"anyangle/pkg/apperror"
	"anyangle/pkg/logger"
)

// Recover превращает панику обработчика в ответ 500
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.WithContext(r.Context()).Error("Handler panicked",
				"panic", fmt.Sprint(rec),
				"stack", string(debug.Stack()),
			)
			WriteError(w, r, apperror.New(apperror.CodeInternal, "internal error"))
		}()
		next.ServeHTTP(w, r)
	})
}

// MaxBytes ограничивает размер тела запроса
func MaxBytes(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		if limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/herdpool/herdpool/internal/usecase"
)

const (
	// IdempotencyKeyHeader names the header clients send to deduplicate
	// mutating requests.
	IdempotencyKeyHeader = "Idempotency-Key"

	replayHeader   = "X-Idempotency-Replay"
	idempotencyTTL = 24 * time.Hour
)

// IdempotencyMiddleware replays cached responses for repeated
// idempotency keys.
type IdempotencyMiddleware struct {
	store usecase.IdempotencyStore
}

// NewIdempotencyMiddleware creates an IdempotencyMiddleware.
func NewIdempotencyMiddleware(store usecase.IdempotencyStore) *IdempotencyMiddleware {
	return &IdempotencyMiddleware{store: store}
}

// Wrap adds idempotency handling to mutating requests that carry a key.
// Only 2xx responses are cached; a failed request may be retried with
// the same key.
func (m *IdempotencyMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost && r.Method != http.MethodPut {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get(IdempotencyKeyHeader)
		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		seen, cached, err := m.store.CheckAndSet(r.Context(), key, nil, idempotencyTTL)
		if err != nil {
			http.Error(w, "idempotency check failed", http.StatusInternalServerError)
			return
		}

		if seen && len(cached) > 0 && string(cached) != usecase.IdempotencyInFlight {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set(replayHeader, "true")
			_, _ = w.Write(cached)
			return
		}

		rec := &bodyRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		if rec.statusCode >= 200 && rec.statusCode < 300 {
			_ = m.store.Update(r.Context(), key, rec.body.Bytes(), idempotencyTTL)
		}
	})
}

type bodyRecorder struct {
	http.ResponseWriter

	statusCode int
	body       bytes.Buffer
}

func (r *bodyRecorder) Write(p []byte) (int, error) {
	r.body.Write(p)
	return r.ResponseWriter.Write(p)
}

func (r *bodyRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

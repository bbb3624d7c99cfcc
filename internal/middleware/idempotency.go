package middleware

import (
	"bytes"
	"context"
	"net/http"

	"github.com/mdiqbalhossan/paygate/internal/infrastructure/redis"
)

const maxIdempotencyBodySize = 1 << 20

// IdempotencyStore records responses for replay, keyed by Idempotency-Key.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*redis.IdempotencyEntry, error)
	Set(ctx context.Context, entry *redis.IdempotencyEntry) error
}

// Idempotency replays the recorded response for a repeated Idempotency-Key,
// so retried payment initiations do not hit the gateway twice.
func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			entry, err := store.Get(r.Context(), key)
			if err == nil && entry != nil {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotency-Replayed", "true")
				w.WriteHeader(entry.ResponseStatus)
				w.Write([]byte(entry.ResponseBody))
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			// Server errors are retryable and must not be replayed. A
			// truncated buffer is not the real response either.
			if rec.statusCode >= 200 && rec.statusCode < 500 && !rec.bodyTruncated {
				store.Set(r.Context(), &redis.IdempotencyEntry{
					Key:            key,
					ResponseBody:   rec.body.String(),
					ResponseStatus: rec.statusCode,
				})
			}
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	body          *bytes.Buffer
	bodyTruncated bool
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.bodyTruncated {
		if r.body.Len()+len(b) > maxIdempotencyBodySize {
			r.bodyTruncated = true
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

package common

import (
	"context"
	"net/http"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// IdempotencyHeader is the request header carrying the client supplied key.
const IdempotencyHeader = "Idempotency-Key"

// Idem rejects replays of write requests carrying the same Idempotency-Key.
type Idem struct {
	R      *redis.Client
	TTL    time.Duration
	Prefix string
}

func (i Idem) key(r *http.Request, header string) string {
	prefix := i.Prefix
	if prefix == "" {
		prefix = "idem"
	}
	return prefix + ":" + Fingerprint(r.Method, r.URL.Path, header)
}

// Middleware enforces idempotency semantics for write endpoints. The key is
// claimed before the handler runs and released again when the handler fails
// or panics, so a corrected request with the same key can proceed.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl := i.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		key := i.key(r, header)
		ok, err := i.R.SetNX(r.Context(), key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !ok {
			JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "duplicate request", nil)
			return
		}

		rec := NewStatusRecorder(w)
		completed := false
		defer func() {
			if completed && rec.Status() < http.StatusBadRequest {
				return
			}
			_ = i.R.Del(context.WithoutCancel(r.Context()), key).Err()
		}()
		next.ServeHTTP(rec, r)
		completed = true
	})
}

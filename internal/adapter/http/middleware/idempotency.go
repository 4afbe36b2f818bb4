package middleware

import (
	"bytes"
	"encoding/json"
	"time"

	"account-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderReplayed       = "Idempotent-Replayed"

	maxIdempotencyKeyLen = 128
)

// cachedResponse is what the idempotency cache stores per key.
type cachedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

// bodyRecorder tees the response body so it can be cached.
type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// BuildIdempotencyKey scopes a client's key to one operation on one resource,
// so reusing a key on another route or account never replays a foreign response.
func BuildIdempotencyKey(clientID, method, path, idemKey string) string {
	return clientID + ":" + method + ":" + path + ":" + idemKey
}

// Idempotency replays the stored response when an authenticated client
// repeats a request with the same Idempotency-Key. Only 2xx responses are
// stored, so a rejected deposit may be retried. Requests without the header
// pass through.
func Idempotency(cache ports.IdempotencyCache, ttl time.Duration, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		idemKey := c.GetHeader(HeaderIdempotencyKey)
		clientID := ClientID(c)
		if idemKey == "" || clientID == "" || len(idemKey) > maxIdempotencyKeyLen {
			c.Next()
			return
		}
		key := BuildIdempotencyKey(clientID, c.Request.Method, c.Request.URL.Path, idemKey)
		ctx := c.Request.Context()

		cached, err := cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Msg("idempotency lookup failed, processing request")
		} else if cached != nil {
			var resp cachedResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				c.Header(HeaderReplayed, "true")
				c.Data(resp.Status, "application/json; charset=utf-8", resp.Body)
				c.Abort()
				return
			}
			log.Warn().Str("key", key).Msg("discarding unreadable idempotency entry")
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		payload, err := json.Marshal(cachedResponse{Status: status, Body: rec.buf.Bytes()})
		if err != nil {
			return
		}
		if err := cache.Set(ctx, key, payload, ttl); err != nil {
			log.Warn().Err(err).Msg("failed to store idempotent response")
		}
	}
}

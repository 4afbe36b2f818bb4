package middleware

import (
	"context"
	"net/http"

	"account-ledger/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Autosave writes a ledger snapshot after every successful mutating request.
// The response is already committed, so a failed save is only logged; the
// shutdown save retries it.
func Autosave(persister ports.SnapshotPersister, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			return
		}
		if status := c.Writer.Status(); status < 200 || status >= 300 {
			return
		}

		ctx := context.WithoutCancel(c.Request.Context())
		if err := persister.Save(ctx); err != nil {
			log.Error().Err(err).
				Str("path", c.Request.URL.Path).
				Msg("autosave failed")
		}
	}
}

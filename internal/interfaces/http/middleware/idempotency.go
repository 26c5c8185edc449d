package middleware

import (
	"net/http"
	"time"

	"github.com/clinic/backend/internal/domain/shared"
	"github.com/clinic/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader is the header carrying the client-chosen request key
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds the accepted key size
const MaxIdempotencyKeyLength = 128

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency returns a middleware that deduplicates state-changing requests
// by the Idempotency-Key header. A request without the header passes through
// unchanged; a repeated key within the TTL is rejected with 409 before the
// handler runs. The store is consulted atomically, so concurrent retries
// cannot both pass.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest,
				"Idempotency key is too long",
				getRequestID(c),
			))
			return
		}

		// Scope the key by method and path so the same key can be reused
		// across different endpoints
		scopedKey := c.Request.Method + ":" + c.FullPath() + ":" + key

		isNew, err := cfg.Store.MarkProcessed(c.Request.Context(), scopedKey, ttl)
		if err != nil {
			// Store failure must not block the operation; log and continue
			logger.Warn("idempotency store unavailable, processing without deduplication",
				zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeConflict,
				"Request with this idempotency key was already processed",
				getRequestID(c),
			))
			return
		}

		c.Next()
	}
}

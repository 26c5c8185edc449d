package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clinic/backend/internal/infrastructure/cache"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingIdempotencyStore struct{}

func (failingIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, errors.New("store down")
}

func (failingIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	return false, errors.New("store down")
}

func (failingIdempotencyStore) Close() error { return nil }

func setupIdempotencyRouter(t *testing.T, cfg IdempotencyConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Idempotency(cfg))
	router.POST("/commit", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.POST("/other", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func doPost(router *gin.Engine, path, key string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestIdempotency(t *testing.T) {
	t.Run("requests without a key pass through", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router := setupIdempotencyRouter(t, IdempotencyConfig{Store: store})

		assert.Equal(t, http.StatusOK, doPost(router, "/commit", "").Code)
		assert.Equal(t, http.StatusOK, doPost(router, "/commit", "").Code)
		assert.Zero(t, store.Size())
	})

	t.Run("a repeated key is rejected with 409", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router := setupIdempotencyRouter(t, IdempotencyConfig{Store: store})

		require.Equal(t, http.StatusOK, doPost(router, "/commit", "batch-2025").Code)
		assert.Equal(t, http.StatusConflict, doPost(router, "/commit", "batch-2025").Code)
	})

	t.Run("the key is scoped per endpoint", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router := setupIdempotencyRouter(t, IdempotencyConfig{Store: store})

		require.Equal(t, http.StatusOK, doPost(router, "/commit", "shared-key").Code)
		assert.Equal(t, http.StatusOK, doPost(router, "/other", "shared-key").Code)
	})

	t.Run("an oversized key is rejected with 400", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router := setupIdempotencyRouter(t, IdempotencyConfig{Store: store})

		key := strings.Repeat("k", MaxIdempotencyKeyLength+1)
		assert.Equal(t, http.StatusBadRequest, doPost(router, "/commit", key).Code)
	})

	t.Run("a store failure fails open", func(t *testing.T) {
		router := setupIdempotencyRouter(t, IdempotencyConfig{
			Store:  failingIdempotencyStore{},
			Logger: zap.NewNop(),
		})

		assert.Equal(t, http.StatusOK, doPost(router, "/commit", "batch-2025").Code)
		assert.Equal(t, http.StatusOK, doPost(router, "/commit", "batch-2025").Code)
	})

	t.Run("an expired key can be reused", func(t *testing.T) {
		store := cache.NewInMemoryIdempotencyStore()
		defer store.Close()
		router := setupIdempotencyRouter(t, IdempotencyConfig{
			Store: store,
			TTL:   10 * time.Millisecond,
		})

		require.Equal(t, http.StatusOK, doPost(router, "/commit", "batch-2025").Code)
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, http.StatusOK, doPost(router, "/commit", "batch-2025").Code)
	})
}

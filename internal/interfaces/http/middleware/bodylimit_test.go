package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clinic/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func limitedRouter(maxBytes int64, handler gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(BodyLimit(maxBytes))
	router.POST("/vip/designations/batch", handler)
	return router
}

func TestBodyLimit(t *testing.T) {
	okHandler := func(c *gin.Context) { c.String(http.StatusOK, "ok") }

	t.Run("passes a batch payload within the cap", func(t *testing.T) {
		router := limitedRouter(1024, okHandler)

		payload := `{"year":2026,"candidates":[{"patient_id":"p-1","grade":"gold"}]}`
		req := httptest.NewRequest(http.MethodPost, "/vip/designations/batch", strings.NewReader(payload))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("rejects an oversized Content-Length before binding", func(t *testing.T) {
		router := limitedRouter(100, okHandler)

		req := httptest.NewRequest(http.MethodPost, "/vip/designations/batch", strings.NewReader(strings.Repeat("x", 200)))
		req.ContentLength = 200
		req.Header.Set("X-Request-ID", "req-batch-oversize")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), dto.ErrCodeRequestTooLarge)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("ignores bodyless requests", func(t *testing.T) {
		router := gin.New()
		router.Use(BodyLimit(10))
		router.GET("/vip/designations", okHandler)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vip/designations", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("caps streaming bodies without a Content-Length", func(t *testing.T) {
		router := limitedRouter(50, func(c *gin.Context) {
			if _, err := io.ReadAll(c.Request.Body); err != nil {
				c.String(http.StatusBadRequest, "body too large")
				return
			}
			c.String(http.StatusOK, "ok")
		})

		req := httptest.NewRequest(http.MethodPost, "/vip/designations/batch", strings.NewReader(strings.Repeat("x", 100)))
		req.ContentLength = -1 // chunked upload
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "MaxBytesReader must stop the read")
	})
}

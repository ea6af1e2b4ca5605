package size

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodySizeLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/apply", BodySizeLimiter(8), func(c *gin.Context) {
		_, err := io.ReadAll(c.Request.Body)
		if IsTooLarge(err) {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("Should accept bodies within the limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/apply", strings.NewReader("12345678")))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Should reject bodies over the limit", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/apply", strings.NewReader("123456789")))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

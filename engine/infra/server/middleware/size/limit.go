package size

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipartOverhead leaves room for the text fields and part headers sent
// alongside an upload.
const multipartOverhead = 64 << 10

// BodySizeLimiter limits the request body size for the route group.
func BodySizeLimiter(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// UploadLimit bounds a multipart body carrying one file of at most fileLimit
// bytes.
func UploadLimit(fileLimit int64) gin.HandlerFunc {
	return BodySizeLimiter(fileLimit + multipartOverhead)
}

// IsTooLarge reports whether err came from a body exceeding the limit.
func IsTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

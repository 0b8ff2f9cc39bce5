package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/killallgit/subclip/internal/services/cache"
)

const keyPrefix = "http:"

// CacheConfig holds configuration for the response cache
type CacheConfig struct {
	Cache   cache.Cache
	TTL     time.Duration
	Enabled bool
}

// responseWriter captures the response body so it can be stored
type responseWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// cachedResponse is what gets stored per request key
type cachedResponse struct {
	Status      int       `json:"status"`
	ContentType string    `json:"content_type"`
	Body        []byte    `json:"body"`
	ETag        string    `json:"etag"`
	CachedAt    time.Time `json:"cached_at"`
}

// ResponseCache serves repeated GET requests from cache. Only 200 responses
// are stored. Clients can skip the cache with Cache-Control: no-cache.
func ResponseCache(config CacheConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.Enabled || config.Cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		if shouldBypassCache(c.Request) {
			c.Header("X-Cache", "BYPASS")
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := cacheKey(c.Request)

		if data, found := config.Cache.Get(ctx, key); found {
			var cached cachedResponse
			if err := json.Unmarshal(data, &cached); err == nil {
				if match := c.GetHeader("If-None-Match"); match != "" && match == cached.ETag {
					c.Header("ETag", cached.ETag)
					c.AbortWithStatus(http.StatusNotModified)
					return
				}

				c.Header("X-Cache", "HIT")
				c.Header("ETag", cached.ETag)
				c.Header("Age", strconv.Itoa(int(time.Since(cached.CachedAt).Seconds())))
				c.Data(cached.Status, cached.ContentType, cached.Body)
				c.Abort()
				return
			}
		}

		c.Header("X-Cache", "MISS")
		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           bytes.NewBuffer(nil),
			status:         http.StatusOK,
		}
		c.Writer = w

		c.Next()

		if w.status != http.StatusOK || w.body.Len() == 0 {
			return
		}

		data, err := json.Marshal(cachedResponse{
			Status:      w.status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
			ETag:        etag(w.body.Bytes()),
			CachedAt:    time.Now(),
		})
		if err == nil {
			_ = config.Cache.Set(ctx, key, data, config.TTL)
		}
	}
}

// shouldBypassCache checks the client's cache control headers
func shouldBypassCache(req *http.Request) bool {
	if req.Header.Get("Pragma") == "no-cache" {
		return true
	}

	for _, directive := range strings.Split(strings.ToLower(req.Header.Get("Cache-Control")), ",") {
		directive = strings.TrimSpace(directive)
		if directive == "no-cache" || directive == "no-store" || directive == "max-age=0" {
			return true
		}
	}
	return false
}

// cacheKey builds a key from the path and the sorted query parameters
func cacheKey(req *http.Request) string {
	parts := []string{req.URL.Path}

	params := req.URL.Query()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range params[k] {
			parts = append(parts, fmt.Sprintf("%s=%s", k, v))
		}
	}
	return keyPrefix + strings.Join(parts, ":")
}

func etag(body []byte) string {
	hash := sha256.Sum256(body)
	return `"` + hex.EncodeToString(hash[:16]) + `"`
}

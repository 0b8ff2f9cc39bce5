package api

import (
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/killallgit/subclip/api/types"
	"github.com/killallgit/subclip/internal/logging"
	apperrors "github.com/killallgit/subclip/pkg/errors"
)

const (
	defaultMaxBodyBytes = 1024 * 1024
	limiterIdleTimeout  = 10 * time.Minute
	limiterSweepPeriod  = 5 * time.Minute
)

// CORS allows cross-origin requests from origins. A "*" entry allows any origin.
func CORS(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 0 || slices.Contains(origins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(origins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Length, Content-Type, Authorization")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func RequestSizeLimit() gin.HandlerFunc {
	return RequestSizeLimitWithSize(defaultMaxBodyBytes)
}

func RequestSizeLimitWithSize(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost ||
			c.Request.Method == http.MethodPut ||
			c.Request.Method == http.MethodPatch {
			if c.Request.ContentLength > maxBytes {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, types.ErrorResponse{
					Status:  types.StatusError,
					Message: fmt.Sprintf("Request body exceeds %d bytes", maxBytes),
				})
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// RequestLogger logs one structured line per request
func RequestLogger() gin.HandlerFunc {
	log := logging.Component("http")

	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":    c.Request.Method,
			"path":      path,
			"status":    status,
			"latency":   time.Since(start).String(),
			"client_ip": c.ClientIP(),
			"bytes":     c.Writer.Size(),
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			entry.Error("request completed")
		case status >= 400:
			entry.Warn("request completed")
		default:
			entry.Debug("request completed")
		}
	}
}

// clientLimiter holds a rate limiter and its last accessed time
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// RateLimiter keeps one token bucket per client and route group. Idle
// buckets are swept in the background until Stop is called.
type RateLimiter struct {
	limiters sync.Map
	stop     chan struct{}
	once     sync.Once
	stopOnce sync.Once
}

// NewRateLimiter creates an empty limiter set
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{stop: make(chan struct{})}
}

// Limit returns middleware allowing perMinute requests per client for the
// named group, with bursts of up to a tenth of a minute's allowance.
func (rl *RateLimiter) Limit(group string, perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	rl.once.Do(func() {
		go rl.sweep()
	})

	every := rate.Every(time.Minute / time.Duration(perMinute))
	burst := max(1, perMinute/6)
	limitDesc := fmt.Sprintf("%d requests per minute", perMinute)

	return func(c *gin.Context) {
		key := group + "|" + c.ClientIP()
		value, _ := rl.limiters.LoadOrStore(key, newClientLimiter(every, burst))

		cl := value.(*clientLimiter)
		cl.lastSeen.Store(time.Now().UnixNano())

		if !cl.limiter.Allow() {
			types.SendError(c, apperrors.RateLimitError(group, limitDesc))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Stop ends the background sweep
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() {
		close(rl.stop)
	})
}

func newClientLimiter(every rate.Limit, burst int) *clientLimiter {
	cl := &clientLimiter{limiter: rate.NewLimiter(every, burst)}
	cl.lastSeen.Store(time.Now().UnixNano())
	return cl
}

func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(limiterSweepPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.removeIdle(time.Now())
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) removeIdle(now time.Time) int {
	removed := 0
	rl.limiters.Range(func(key, value interface{}) bool {
		cl := value.(*clientLimiter)
		if now.Sub(time.Unix(0, cl.lastSeen.Load())) > limiterIdleTimeout {
			rl.limiters.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// endpointLimit looks up a per-minute limit by group name, falling back to "default"
func endpointLimit(endpoints map[string]int, group string) int {
	if n, ok := endpoints[strings.ToLower(group)]; ok {
		return n
	}
	return endpoints["default"]
}

package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"taskflow/pkg/utils"
)

const visitorIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter gives every caller its own token bucket. Authenticated requests
// are keyed by user ID, anonymous ones by client IP. rps <= 0 disables it.
func RateLimiter(rps float64, burst int) fiber.Handler {
	if rps <= 0 {
		return func(c *fiber.Ctx) error { return c.Next() }
	}
	if burst < 1 {
		burst = 1
	}

	var (
		mu        sync.Mutex
		visitors  = make(map[string]*visitor)
		lastPrune = time.Now()
	)

	getVisitor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		now := time.Now()
		if now.Sub(lastPrune) > visitorIdleTTL {
			for k, v := range visitors {
				if now.Sub(v.lastSeen) > visitorIdleTTL {
					delete(visitors, k)
				}
			}
			lastPrune = now
		}

		v, ok := visitors[key]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
			visitors[key] = v
		}
		v.lastSeen = now
		return v.limiter
	}

	return func(c *fiber.Ctx) error {
		key := "ip:" + c.IP()
		if user, err := utils.GetUserFromContext(c); err == nil {
			key = "user:" + user.ID.String()
		}

		if !getVisitor(key).Allow() {
			c.Set(fiber.HeaderRetryAfter, "1")
			return utils.ErrorResponse(c, fiber.StatusTooManyRequests, utils.ErrCodeRateLimited, "Rate limit exceeded", nil)
		}
		return c.Next()
	}
}

package middleware

import (
	"fmt"
	"time"

	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/cache"
	"github.com/Ditronics-Tz/Smart-Acess-Web-sub000/utils/response"
	"github.com/gofiber/fiber/v2"
)

// RateLimiter implements Redis-backed request limiting: progressive
// lockouts for failed operator logins, and a fixed window for the
// unauthenticated kiosk verify endpoint.
type RateLimiter struct {
	redisCache *cache.RedisCache
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(redisCache *cache.RedisCache) *RateLimiter {
	return &RateLimiter{
		redisCache: redisCache,
	}
}

// CheckLoginLock blocks requests from IPs locked out after repeated
// failed logins. When Redis is down the request is allowed through;
// cache trouble must not lock out legitimate operators.
func (r *RateLimiter) CheckLoginLock() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ip := c.IP()
		lockKey := fmt.Sprintf("login:lock:%s", ip)

		locked, err := r.redisCache.Exists(c.Context(), lockKey)
		if err != nil {
			return c.Next()
		}

		if locked {
			ttl, _ := r.redisCache.TTL(c.Context(), lockKey)
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = 60
			}

			c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
		}

		return c.Next()
	}
}

// RecordFailedLogin counts a failed login and applies progressive lockouts
func (r *RateLimiter) RecordFailedLogin(c *fiber.Ctx, ip string) error {
	ctx := c.Context()
	attemptKey := fmt.Sprintf("login:attempts:%s", ip)
	lockKey := fmt.Sprintf("login:lock:%s", ip)

	attempts, err := r.redisCache.Increment(ctx, attemptKey)
	if err != nil {
		return nil
	}

	// 15 minute counting window
	if attempts == 1 {
		r.redisCache.Expire(ctx, attemptKey, 15*time.Minute)
	}

	var lockDuration time.Duration
	switch {
	case attempts >= 20:
		lockDuration = 1 * time.Hour
	case attempts >= 5:
		lockDuration = 2 * time.Minute
	default:
		return nil
	}

	return r.redisCache.Set(ctx, lockKey, "locked", lockDuration)
}

// RecordSuccessfulLogin clears the failure counters for an IP
func (r *RateLimiter) RecordSuccessfulLogin(c *fiber.Ctx, ip string) error {
	ctx := c.Context()
	r.redisCache.Delete(ctx, fmt.Sprintf("login:attempts:%s", ip))
	r.redisCache.Delete(ctx, fmt.Sprintf("login:lock:%s", ip))
	return nil
}

// LimitVerify applies a fixed window per IP to the kiosk verify endpoint.
// The endpoint is unauthenticated, so this is its only throttle.
func (r *RateLimiter) LimitVerify(maxPerWindow int64, window time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.Context()
		key := fmt.Sprintf("verify:window:%s", c.IP())

		count, err := r.redisCache.Increment(ctx, key)
		if err != nil {
			return c.Next()
		}
		if count == 1 {
			r.redisCache.Expire(ctx, key, window)
		}

		if count > maxPerWindow {
			ttl, _ := r.redisCache.TTL(ctx, key)
			retryAfter := int(ttl.Seconds())
			if retryAfter < 0 {
				retryAfter = int(window.Seconds())
			}
			c.Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			return response.TooManyRequests(c, "Verification rate limit reached")
		}

		return c.Next()
	}
}

package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/metaa35/qrwedding-sub000/pkg/logger"
)

// RateLimit allows max requests per window per client IP. A nil storage keeps
// counters in process memory.
func RateLimit(name string, max int, window time.Duration, storage fiber.Storage) fiber.Handler {
	cfg := limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return name + ":" + c.IP()
		},
		Next: func(c *fiber.Ctx) bool {
			return quietPaths[c.Path()]
		},
		LimitReached: func(c *fiber.Ctx) error {
			logger.Warn("rate_limit_exceeded", map[string]interface{}{
				"limiter": name,
				"ip":      c.IP(),
				"path":    c.Path(),
			})
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"message": "Çok fazla istek gönderildi, lütfen daha sonra tekrar deneyin",
				"code":    "RATE_LIMITED",
			})
		},
	}
	if storage != nil {
		cfg.Storage = storage
	}
	return limiter.New(cfg)
}

package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses that the handler
// left unset.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		path := c.Path()
		var ttl string

		switch {
		case path == "/v1/health" || path == "/v1/ready":
			ttl = "no-cache"

		case path == "/metrics":
			ttl = "no-cache"

		case path == "/v1/regions" || path == "/v1/transit/stops":
			ttl = "public, max-age=3600" // configuration, changes on deploy

		case path == "/v1/enrich":
			ttl = "public, max-age=3600"

		case strings.HasPrefix(path, "/v1/listings/nearby"):
			ttl = "public, max-age=120"

		case path == "/v1/listings":
			ttl = "public, max-age=60" // new listings every scrape cycle

		case strings.HasPrefix(path, "/v1/listings/"):
			ttl = "public, max-age=600" // stored listings are immutable

		case strings.HasPrefix(path, "/v1/"):
			ttl = "public, max-age=60"
		}

		if ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}

		return err
	}
}

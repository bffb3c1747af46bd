package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS allows browser clients from any origin to call the API.
func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Authorization,Content-Type,X-Request-ID",
		ExposeHeaders: "Content-Length,X-Request-ID",
		MaxAge:        600,
	})
}

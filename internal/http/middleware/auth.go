package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"skinscan/internal/identity"
	"skinscan/internal/model"
)

// IdentityLocalKey is the Fiber locals key holding the resolved model.Identity.
const IdentityLocalKey = "identity"

// Auth resolves the bearer token to the caller. Missing, malformed and
// rejected tokens end the request with 401; the error handler renders it.
func Auth(auth identity.Authenticator, log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "missing or malformed bearer token")
		}

		id, err := auth.Authenticate(c.UserContext(), token)
		if err != nil {
			rid, _ := c.Locals(RequestIDLocalKey).(string)
			log.Warn().Err(err).Str("request_id", rid).Msg("authentication failed")
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(IdentityLocalKey, id)
		return c.Next()
	}
}

// IdentityFrom returns the caller stored by Auth.
func IdentityFrom(c *fiber.Ctx) (model.Identity, bool) {
	id, ok := c.Locals(IdentityLocalKey).(model.Identity)
	return id, ok && id.ID != ""
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(strings.TrimSpace(header), " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

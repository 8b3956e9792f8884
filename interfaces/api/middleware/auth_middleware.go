package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"taskflow/pkg/logger"
	"taskflow/pkg/utils"
)

// Protected validates the bearer token issued by the session service and
// stores the caller in fiber locals. The actor ID is added to the request
// context so every log line carries it.
func Protected(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.UnauthorizedResponse(c, "Missing authorization header")
		}

		token := utils.ExtractTokenFromHeader(authHeader)
		if token == "" {
			return utils.UnauthorizedResponse(c, "Invalid authorization header format")
		}

		userCtx, err := utils.ValidateTokenStringToUUID(token, jwtSecret)
		if err != nil {
			logger.WarnContext(c.UserContext(), "Token validation failed", "error", err)
			switch {
			case errors.Is(err, utils.ErrExpiredToken):
				return utils.UnauthorizedResponse(c, "Token has expired")
			case errors.Is(err, utils.ErrInvalidToken):
				return utils.UnauthorizedResponse(c, "Invalid token")
			case errors.Is(err, utils.ErrMissingToken):
				return utils.UnauthorizedResponse(c, "Missing token")
			default:
				return utils.UnauthorizedResponse(c, "Token validation failed")
			}
		}

		c.Locals(utils.UserContextKey, userCtx)
		c.SetUserContext(logger.ContextWithActorID(c.UserContext(), userCtx.ID.String()))

		return c.Next()
	}
}

package auth

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"rocket-admin/internal/engine"
	"rocket-admin/internal/metadata"
)

// CapabilityManageSchema lets a caller edit entity definitions and reload them.
const CapabilityManageSchema = "manage_schema"

// RequireUser authenticates the bearer token and stores the caller under
// the "user" local, where source handlers read it.
func RequireUser(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return engine.UnauthorizedError("Missing or malformed bearer token")
		}
		claims, err := ParseToken(token, secret)
		if err != nil {
			return engine.UnauthorizedError("Invalid or expired token")
		}
		c.Locals("user", claims.User())
		return c.Next()
	}
}

// RequireCapability lets through callers the authorizer grants capability to.
func RequireCapability(authz engine.Authorizer, capability string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return engine.UnauthorizedError("Missing or malformed bearer token")
		}
		if !authz.Granted(capability, user) {
			log.Printf("WARN: user %s with roles [%s] denied %s on %s", user.ID, user.Key(), capability, c.Path())
			return engine.ForbiddenError("Capability " + capability + " required")
		}
		return c.Next()
	}
}

func GetUser(c *fiber.Ctx) *metadata.UserContext {
	user, _ := c.Locals("user").(*metadata.UserContext)
	return user
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

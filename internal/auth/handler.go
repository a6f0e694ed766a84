package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"rocket-admin/internal/engine"
	"rocket-admin/internal/metadata"
	"rocket-admin/internal/store"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store     *store.Store
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthHandler(s *store.Store, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{store: s, jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&body); err != nil {
		return engine.NewAppError("INVALID_PAYLOAD", 400, "Invalid request body")
	}
	if body.Email == "" || body.Password == "" {
		return engine.UnauthorizedError("Email and password are required")
	}

	user, err := h.findUserByEmail(c.UserContext(), body.Email)
	if err != nil {
		return engine.UnauthorizedError("Invalid email or password")
	}
	if !isActive(user["active"]) {
		return engine.UnauthorizedError("Account is disabled")
	}
	passwordHash, _ := user["password_hash"].(string)
	if !CheckPassword(body.Password, passwordHash) {
		return engine.UnauthorizedError("Invalid email or password")
	}

	caller := &metadata.UserContext{
		ID:    fmt.Sprintf("%v", user["id"]),
		Roles: normalizeRoles(extractRoles(user["roles"])),
	}
	token, err := IssueToken(caller, h.jwtSecret, h.tokenTTL)
	if err != nil {
		return engine.NewAppError("INTERNAL_ERROR", 500, "Failed to generate access token")
	}

	return c.JSON(fiber.Map{"data": fiber.Map{
		"access_token": token,
		"roles":        caller.Roles,
	}})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := GetUser(c)
	if user == nil {
		return engine.UnauthorizedError("Missing auth token")
	}
	return c.JSON(fiber.Map{"data": user})
}

// RegisterAuthRoutes registers auth routes on the given Fiber app.
func RegisterAuthRoutes(app *fiber.App, h *AuthHandler, authMW fiber.Handler) {
	auth := app.Group("/api/auth")
	auth.Post("/login", h.Login)
	auth.Get("/me", authMW, h.Me)
}

func (h *AuthHandler) findUserByEmail(ctx context.Context, email string) (map[string]any, error) {
	q := fmt.Sprintf("SELECT id, email, password_hash, roles, active FROM _users WHERE email = %s",
		h.store.Dialect.Placeholder(1))
	return store.QueryRow(ctx, h.store.DB, q, email)
}

// isActive accepts native booleans and the integer form SQLite and MySQL return.
func isActive(v any) bool {
	switch a := v.(type) {
	case bool:
		return a
	case int64:
		return a != 0
	case int:
		return a != 0
	}
	return false
}

// extractRoles reads the roles column, stored as a JSON array.
func extractRoles(v any) []string {
	switch roles := v.(type) {
	case []string:
		return roles
	case []any:
		result := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				result = append(result, s)
			}
		}
		return result
	case string:
		var result []string
		if err := json.Unmarshal([]byte(roles), &result); err == nil {
			return result
		}
	case []byte:
		return extractRoles(string(roles))
	}
	return []string{}
}

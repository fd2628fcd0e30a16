package middleware

import (
	"strings"

	"cryptopayroll/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleOwner    = "owner"
	RoleEmployee = "employee"
	RoleOracle   = "oracle"
)

func extractToken(c *fiber.Ctx) (string, error) {
	auth := c.Get("Authorization")
	if auth == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "No token provided")
	}

	parts := strings.Split(auth, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token format")
	}

	return parts[1], nil
}

func authenticate(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, err := extractToken(c)
	if err != nil {
		return nil, err
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	c.Locals("claims", claims)
	c.Locals("address", claims["address"])
	c.Locals("role", claims["role"])
	return claims, nil
}

func RequireAuth(c *fiber.Ctx) error {
	if _, err := authenticate(c); err != nil {
		return err
	}
	return c.Next()
}

func requireRole(c *fiber.Ctx, role string) error {
	claims, err := authenticate(c)
	if err != nil {
		return err
	}

	if claims["role"] != role {
		return c.Status(403).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	return c.Next()
}

func RequireOwner(c *fiber.Ctx) error {
	return requireRole(c, RoleOwner)
}

// RequireEmployee only checks the role claim; handlers resolve the claimed
// address against the registry, so a removed employee's stale token cannot
// reach payroll state.
func RequireEmployee(c *fiber.Ctx) error {
	return requireRole(c, RoleEmployee)
}

func RequireOracle(c *fiber.Ctx) error {
	return requireRole(c, RoleOracle)
}

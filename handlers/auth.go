package handlers

import (
	"time"

	"cryptopayroll/config"
	"cryptopayroll/middleware"
	"cryptopayroll/types"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

func signToken(address, role string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"address": address,
		"role":    role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// OwnerLogin exchanges the owner password for an owner token.
func OwnerLogin(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	err := bcrypt.CompareHashAndPassword([]byte(config.AppConfig.OwnerPasswordHash), []byte(req.Password))
	if err != nil {
		return c.Status(401).JSON(types.APIResponse{
			Success: false,
			Error:   "Invalid credentials",
		})
	}

	t, err := signToken(config.AppConfig.OwnerAddress, middleware.RoleOwner)
	if err != nil {
		return c.Status(500).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInternalError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"token": t,
		},
	})
}

// IssueGrant lets the owner hand out employee and oracle tokens for a given
// account address. This is how the designated oracle identity gets its bearer
// credential.
func IssueGrant(c *fiber.Ctx) error {
	var req struct {
		Address string `json:"address" validate:"required"`
		Role    string `json:"role" validate:"required,oneof=employee oracle"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	if req.Address == "" || (req.Role != middleware.RoleEmployee && req.Role != middleware.RoleOracle) {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	t, err := signToken(req.Address, req.Role)
	if err != nil {
		return c.Status(500).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInternalError,
		})
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"token": t,
		},
	})
}

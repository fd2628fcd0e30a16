package handlers

import (
	"cryptopayroll/types"

	"github.com/gofiber/fiber/v2"
)

type RegisterTokenRequest struct {
	Address       string `json:"address" validate:"required"`
	Symbol        string `json:"symbol" validate:"required"`
	Native        bool   `json:"native"`
	DataSourceURL string `json:"data_source_url"`
	JSONPath      string `json:"json_path"`
}

func RegisterToken(c *fiber.Ctx) error {
	var req RegisterTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	query, err := PriceFeed.RegisterToken(req.Address, req.Symbol, req.Native, req.DataSourceURL, req.JSONPath)
	if err != nil {
		return fail(c, err)
	}

	// Token and first query committed together; dispatch only after commit.
	if query != nil {
		Oracle.Dispatch(query)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Token registered",
	})
}

func ListTokens(c *fiber.Ctx) error {
	tokens, err := PriceFeed.ListTokens()
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    tokens,
	})
}

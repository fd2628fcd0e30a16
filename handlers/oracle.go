package handlers

import (
	"cryptopayroll/types"

	"github.com/gofiber/fiber/v2"
)

type OracleCallbackRequest struct {
	QueryID string `json:"query_id" validate:"required"`
	Payload string `json:"payload" validate:"required"`
	Proof   string `json:"proof" validate:"required"`
}

// OracleCallback is the delayed half of the price conversation: the oracle
// answers an earlier query. The service verifies caller identity and proof
// before any state is touched.
func OracleCallback(c *fiber.Ctx) error {
	address, ok := callerAddress(c)
	if !ok {
		return fail(c, types.ErrOracleAuthenticityFailed)
	}

	var req OracleCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	if err := Oracle.HandleCallback(address, req.QueryID, req.Payload, req.Proof); err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Price accepted",
	})
}

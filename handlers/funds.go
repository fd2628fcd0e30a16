package handlers

import (
	"cryptopayroll/types"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type AddFundsRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func AddFunds(c *fiber.Ctx) error {
	address, ok := callerAddress(c)
	if !ok {
		return fail(c, types.ErrUnauthorized)
	}

	var req AddFundsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fail(c, types.ErrInvalidAmount)
	}

	if err := Custody.AddFunds(address, amount); err != nil {
		return fail(c, err)
	}

	balance, err := Custody.Balance()
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Funds added",
		Data: map[string]interface{}{
			"custody_balance": balance,
		},
	})
}

func EmergencyWithdraw(c *fiber.Ctx) error {
	withdrawn, err := Custody.EmergencyWithdraw(c.Context())
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Emergency withdrawal executed",
		Data: map[string]interface{}{
			"withdrawn": withdrawn,
		},
	})
}

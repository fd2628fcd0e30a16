package handlers

import (
	"cryptopayroll/services"
	"cryptopayroll/types"

	"github.com/gofiber/fiber/v2"
)

type DetermineAllocationRequest struct {
	Tokens  []string `json:"tokens" validate:"required,min=1"`
	Weights []int    `json:"weights" validate:"required,min=1"`
}

// callerAddress reads the authenticated address claim set by the middleware.
func callerAddress(c *fiber.Ctx) (string, bool) {
	address, ok := c.Locals("address").(string)
	return address, ok && address != ""
}

func DetermineAllocation(c *fiber.Ctx) error {
	address, ok := callerAddress(c)
	if !ok {
		return fail(c, types.ErrUnauthorized)
	}

	var req DetermineAllocationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInvalidInput,
		})
	}

	if err := Payroll.DetermineAllocation(address, req.Tokens, req.Weights); err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Allocation updated",
	})
}

func Payday(c *fiber.Ctx) error {
	address, ok := callerAddress(c)
	if !ok {
		return fail(c, types.ErrUnauthorized)
	}

	payouts, err := Payroll.Payday(c.Context(), address)
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Message: "Payday executed",
		Data:    payouts,
	})
}

func GetBurnrate(c *fiber.Ctx) error {
	burnrate, err := Payroll.Burnrate()
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"monthly_usd": burnrate,
		},
	})
}

func GetRunway(c *fiber.Ctx) error {
	days, err := Payroll.Runway()
	if err != nil {
		return fail(c, err)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"days":     days,
			"infinite": days == services.RunwayInfinite,
		},
	})
}

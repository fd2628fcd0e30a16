package handlers

import (
	"errors"

	"cryptopayroll/services"
	"cryptopayroll/types"
	"cryptopayroll/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	DB        *gorm.DB
	Registry  *services.Registry
	PriceFeed *services.PriceFeed
	Payroll   *services.Payroll
	Custody   *services.Custody
	Oracle    *services.OracleService
)

func InitHandlers(db *gorm.DB, registry *services.Registry, priceFeed *services.PriceFeed,
	payroll *services.Payroll, custody *services.Custody, oracle *services.OracleService) {
	DB = db
	Registry = registry
	PriceFeed = priceFeed
	Payroll = payroll
	Custody = custody
	Oracle = oracle
}

// fail maps a service error onto an HTTP status. Anything outside the known
// taxonomy is an internal error and gets logged.
func fail(c *fiber.Ctx, err error) error {
	var status int
	switch {
	case errors.Is(err, types.ErrUnauthorized),
		errors.Is(err, types.ErrOracleAuthenticityFailed):
		status = 403
	case errors.Is(err, types.ErrUnknownEmployee),
		errors.Is(err, types.ErrUnknownToken),
		errors.Is(err, types.ErrUnknownQuery):
		status = 404
	case errors.Is(err, types.ErrInvalidAccount),
		errors.Is(err, types.ErrInvalidSalary),
		errors.Is(err, types.ErrNoTokensSpecified),
		errors.Is(err, types.ErrInvalidAllocation),
		errors.Is(err, types.ErrInvalidAmount),
		errors.Is(err, types.ErrInvalidSymbol):
		status = 400
	case errors.Is(err, types.ErrCooldownActive):
		status = 429
	case errors.Is(err, types.ErrZeroPrice),
		errors.Is(err, types.ErrStalePrice),
		errors.Is(err, types.ErrTransferFailed):
		status = 409
	default:
		utils.Logger.Error("unexpected handler error", zap.Error(err))
		return c.Status(500).JSON(types.APIResponse{
			Success: false,
			Error:   types.ErrInternalError,
		})
	}

	return c.Status(status).JSON(types.APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

package handlers

import (
	"time"

	"cryptopayroll/config"
	"cryptopayroll/types"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TokenHealth struct {
	Address         string `json:"address"`
	Symbol          string `json:"symbol"`
	PriceUSD        string `json:"price_usd"`
	PriceAgeSeconds int64  `json:"price_age_seconds"`
	Stale           bool   `json:"stale"`
}

type HealthReport struct {
	CustodyBalance      string        `json:"custody_balance"`
	BurnrateMonthlyUSD  int64         `json:"burnrate_monthly_usd"`
	RunwayDays          int64         `json:"runway_days"`
	Tokens              []TokenHealth `json:"tokens"`
	StalePendingQueries int64         `json:"stale_pending_queries"`
	OracleFeeStarved    bool          `json:"oracle_fee_starved"`
}

// GetHealth reports the treasury and oracle condition. A custody balance that
// can no longer cover the oracle fee means prices will go stale forever; that
// degradation is not detectable from any single failing transition, so it is
// surfaced here.
func GetHealth(c *fiber.Ctx) error {
	var report HealthReport

	balance, err := Custody.Balance()
	if err != nil {
		return fail(c, err)
	}
	report.CustodyBalance = balance.String()

	if report.BurnrateMonthlyUSD, err = Payroll.Burnrate(); err != nil {
		return fail(c, err)
	}
	if report.RunwayDays, err = Payroll.Runway(); err != nil {
		return fail(c, err)
	}

	tokens, err := PriceFeed.ListTokens()
	if err != nil {
		return fail(c, err)
	}
	now := time.Now()
	for _, token := range tokens {
		health := TokenHealth{
			Address:  token.Address,
			Symbol:   token.Symbol,
			PriceUSD: token.PriceUSD.String(),
			Stale:    true,
		}
		if !token.PriceUpdatedAt.IsZero() {
			age := now.Sub(token.PriceUpdatedAt)
			health.PriceAgeSeconds = int64(age.Seconds())
			health.Stale = age > config.AppConfig.PriceMaxAge
		}
		report.Tokens = append(report.Tokens, health)
	}

	// A pending query older than one cadence period means at least one
	// callback was lost or rejected.
	if report.StalePendingQueries, err = Oracle.PendingOlderThan(config.AppConfig.OracleQueryCadence); err != nil {
		return fail(c, err)
	}

	reserve, err := decimal.NewFromString(config.AppConfig.OracleFeeReserve)
	if err == nil && reserve.IsPositive() {
		report.OracleFeeStarved = balance.LessThan(reserve)
	}

	return c.JSON(types.APIResponse{
		Success: true,
		Data:    report,
	})
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cryptopayroll/models"
	"cryptopayroll/types"
	"cryptopayroll/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RunwayInfinite is returned when the burn rate is zero and the custody
// balance covers payroll forever.
const RunwayInfinite = int64(-1)

// Payout is one dispatched transfer of a payday.
type Payout struct {
	TokenAddress string          `json:"token_address"`
	Symbol       string          `json:"symbol"`
	UsdPortion   int64           `json:"usd_portion"`
	Amount       decimal.Decimal `json:"amount"` // token units, 18-decimal fixed point
	Native       bool            `json:"native"`
}

// Payroll runs the per-employee payday and allocation state machines. Both
// operations are gated by independent cooldowns that only reset when the
// action itself fires successfully.
type Payroll struct {
	DB                 *gorm.DB
	Ledger             LedgerClient
	PaydayCooldown     time.Duration
	AllocationCooldown time.Duration
	PriceMaxAge        time.Duration
}

func NewPayroll(db *gorm.DB, ledger LedgerClient, paydayCooldown, allocationCooldown, priceMaxAge time.Duration) *Payroll {
	return &Payroll{
		DB:                 db,
		Ledger:             ledger,
		PaydayCooldown:     paydayCooldown,
		AllocationCooldown: allocationCooldown,
		PriceMaxAge:        priceMaxAge,
	}
}

// DetermineAllocation replaces the caller's token split. Weights must pair
// with tokens one to one, sit in [0,100] and sum to exactly 100.
func (p *Payroll) DetermineAllocation(account string, tokens []string, weights []int) error {
	if len(tokens) == 0 {
		return types.ErrNoTokensSpecified
	}
	if len(weights) != len(tokens) {
		return types.ErrInvalidAllocation
	}
	sum := 0
	for _, w := range weights {
		if w < 0 || w > 100 {
			return types.ErrInvalidAllocation
		}
		sum += w
	}
	if sum != 100 {
		return types.ErrInvalidAllocation
	}

	return p.DB.Transaction(func(tx *gorm.DB) error {
		var employee models.Employee
		if err := tx.First(&employee, "account_address = ?", account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrUnknownEmployee
			}
			return err
		}

		now := time.Now()
		if now.Before(employee.LastAllocationAt.Add(p.AllocationCooldown)) {
			return types.ErrCooldownActive
		}

		for _, addr := range tokens {
			var token models.Token
			if err := tx.First(&token, "address = ?", addr).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return types.ErrUnknownToken
				}
				return err
			}
		}

		if err := tx.Where("employee_id = ?", employee.EmployeeID).Delete(&models.TokenAllocation{}).Error; err != nil {
			return err
		}
		for i, addr := range tokens {
			allocation := models.TokenAllocation{
				EmployeeID:   employee.EmployeeID,
				TokenAddress: addr,
				WeightPct:    weights[i],
				Position:     i,
			}
			if err := tx.Create(&allocation).Error; err != nil {
				return err
			}
		}

		employee.LastAllocationAt = now
		return tx.Save(&employee).Error
	})
}

// Payday converts the caller's monthly salary into token transfers. Every
// allocated token needs a fresh non-zero price or the whole payday fails with
// no transfer. Bookkeeping (cooldown reset, ledger entries, custody debit) is
// written before any transfer is dispatched; a dispatch failure rolls the
// transaction back, so the employee can retry.
func (p *Payroll) Payday(ctx context.Context, account string) ([]Payout, error) {
	var payouts []Payout
	err := p.DB.Transaction(func(tx *gorm.DB) error {
		var employee models.Employee
		err := tx.Preload("Allocations", func(db *gorm.DB) *gorm.DB {
			return db.Order("position")
		}).First(&employee, "account_address = ?", account).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrUnknownEmployee
			}
			return err
		}

		now := time.Now()
		if now.Before(employee.LastPaydayAt.Add(p.PaydayCooldown)) {
			return types.ErrCooldownActive
		}

		monthlySalary := employee.YearlySalaryUSD / 12

		payouts = payouts[:0]
		for _, allocation := range employee.Allocations {
			var token models.Token
			if err := tx.First(&token, "address = ?", allocation.TokenAddress).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return types.ErrUnknownToken
				}
				return err
			}

			price, err := payablePrice(&token, now, p.PriceMaxAge)
			if err != nil {
				return err
			}

			usdPortion := monthlySalary * int64(allocation.WeightPct) / 100
			if usdPortion == 0 {
				continue
			}

			// (usdPortion / price) * 1e18, truncated to whole token units
			amount, _ := decimal.NewFromInt(usdPortion).Shift(18).QuoRem(price, 0)

			payouts = append(payouts, Payout{
				TokenAddress: token.Address,
				Symbol:       token.Symbol,
				UsdPortion:   usdPortion,
				Amount:       amount,
				Native:       token.Native,
			})
		}

		// Effects before interactions: all bookkeeping lands before any
		// transfer is dispatched.
		err = tx.Model(&models.Employee{}).Where("employee_id = ?", employee.EmployeeID).
			Update("last_payday_at", now).Error
		if err != nil {
			return err
		}

		state, err := loadState(tx)
		if err != nil {
			return err
		}
		for _, payout := range payouts {
			if payout.Native {
				state.CustodyBalance = state.CustodyBalance.Sub(payout.Amount)
			}
			entry := models.LedgerEntry{
				ID:                  uuid.New().String(),
				Kind:                models.EntryPayout,
				TokenAddress:        payout.TokenAddress,
				Amount:              payout.Amount.Neg(),
				CounterpartyAddress: employee.AccountAddress,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
		}
		if err := tx.Save(state).Error; err != nil {
			return err
		}

		for _, payout := range payouts {
			if payout.Native {
				err = p.Ledger.TransferNative(ctx, employee.AccountAddress, payout.Amount)
			} else {
				err = p.Ledger.TransferToken(ctx, payout.TokenAddress, employee.AccountAddress, payout.Amount)
			}
			if err != nil {
				return fmt.Errorf("%w: %v", types.ErrTransferFailed, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.Logger.Info("payday executed",
		zap.String("account", account),
		zap.Int("transfers", len(payouts)))
	return payouts, nil
}

// Burnrate returns the pre-aggregated sum of monthly salaries, O(1).
func (p *Payroll) Burnrate() (int64, error) {
	state, err := loadState(p.DB)
	if err != nil {
		return 0, err
	}
	return state.TotalMonthlySalariesUSD, nil
}

// Runway returns how many days the custody balance covers at the current burn
// rate, or RunwayInfinite when nothing is being burned.
func (p *Payroll) Runway() (int64, error) {
	state, err := loadState(p.DB)
	if err != nil {
		return 0, err
	}
	if state.TotalMonthlySalariesUSD <= 0 {
		return RunwayInfinite, nil
	}

	days, _ := state.CustodyBalance.
		Mul(decimal.NewFromInt(30)).
		QuoRem(decimal.NewFromInt(state.TotalMonthlySalariesUSD), 0)
	return days.IntPart(), nil
}

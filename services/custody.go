package services

import (
	"context"

	"cryptopayroll/models"
	"cryptopayroll/types"
	"cryptopayroll/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Custody tracks the native-currency funding pool all paydays draw from.
type Custody struct {
	DB     *gorm.DB
	Ledger LedgerClient
}

func NewCustody(db *gorm.DB, ledger LedgerClient) *Custody {
	return &Custody{DB: db, Ledger: ledger}
}

// AddFunds credits the custody balance. Anyone may deposit.
func (c *Custody) AddFunds(from string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return types.ErrInvalidAmount
	}

	return c.DB.Transaction(func(tx *gorm.DB) error {
		state, err := loadState(tx)
		if err != nil {
			return err
		}
		state.CustodyBalance = state.CustodyBalance.Add(amount)

		entry := models.LedgerEntry{
			ID:                  uuid.New().String(),
			Kind:                models.EntryDeposit,
			Amount:              amount,
			CounterpartyAddress: from,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return tx.Save(state).Error
	})
}

// EmergencyWithdraw sends the entire custody balance to the owner. It is the
// kill switch: irreversible and oblivious to payroll accounting. The balance
// is zeroed before the transfer is dispatched; a dispatch failure rolls
// everything back.
func (c *Custody) EmergencyWithdraw(ctx context.Context) (decimal.Decimal, error) {
	var withdrawn decimal.Decimal
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		state, err := loadState(tx)
		if err != nil {
			return err
		}

		withdrawn = state.CustodyBalance
		if withdrawn.IsZero() {
			return nil
		}

		state.CustodyBalance = decimal.Zero
		entry := models.LedgerEntry{
			ID:                  uuid.New().String(),
			Kind:                models.EntryWithdrawal,
			Amount:              withdrawn.Neg(),
			CounterpartyAddress: state.OwnerAddress,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := tx.Save(state).Error; err != nil {
			return err
		}

		if err := c.Ledger.TransferNative(ctx, state.OwnerAddress, withdrawn); err != nil {
			return types.ErrTransferFailed
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	utils.Logger.Warn("emergency withdrawal executed",
		zap.String("amount", withdrawn.String()))
	return withdrawn, nil
}

func (c *Custody) Balance() (decimal.Decimal, error) {
	state, err := loadState(c.DB)
	if err != nil {
		return decimal.Zero, err
	}
	return state.CustodyBalance, nil
}

func (c *Custody) ListLedger() ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := c.DB.Order("created_at").Find(&entries).Error
	return entries, err
}

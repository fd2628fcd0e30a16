package services

import (
	"cryptopayroll/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const payrollStateID = 1

func loadState(tx *gorm.DB) (*models.PayrollState, error) {
	var state models.PayrollState
	if err := tx.First(&state, payrollStateID).Error; err != nil {
		return nil, err
	}
	return &state, nil
}

// EnsureState creates the singleton accounting row on first boot.
func EnsureState(db *gorm.DB, ownerAddress string) error {
	var state models.PayrollState
	err := db.First(&state, payrollStateID).Error
	if err == nil {
		return nil
	}
	if err != gorm.ErrRecordNotFound {
		return err
	}

	state = models.PayrollState{
		ID:             payrollStateID,
		OwnerAddress:   ownerAddress,
		NextEmployeeID: 1,
		CustodyBalance: decimal.Zero,
	}
	return db.Create(&state).Error
}

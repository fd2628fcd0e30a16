package services

import (
	"errors"
	"time"

	"cryptopayroll/models"
	"cryptopayroll/types"
	"cryptopayroll/utils"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Registry owns the employee roster and keeps the pre-aggregated monthly
// burn rate on PayrollState in step with every add, salary change and removal.
type Registry struct {
	DB *gorm.DB
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{DB: db}
}

// AddEmployee allocates the next employee id, stores the record with both
// cooldown clocks set to now, and assigns an even initial token split with
// the rounding remainder on the first token.
func (r *Registry) AddEmployee(account string, allowedTokens []string, yearlySalaryUSD int64) (uint64, error) {
	if account == "" {
		return 0, types.ErrInvalidAccount
	}
	if yearlySalaryUSD <= 0 {
		return 0, types.ErrInvalidSalary
	}
	if len(allowedTokens) == 0 {
		return 0, types.ErrNoTokensSpecified
	}

	var id uint64
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		for _, addr := range allowedTokens {
			var token models.Token
			if err := tx.First(&token, "address = ?", addr).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return types.ErrUnknownToken
				}
				return err
			}
		}

		var existing int64
		if err := tx.Model(&models.Employee{}).Where("account_address = ?", account).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return types.ErrInvalidAccount
		}

		state, err := loadState(tx)
		if err != nil {
			return err
		}

		id = state.NextEmployeeID
		state.NextEmployeeID++
		state.TotalMonthlySalariesUSD += yearlySalaryUSD / 12

		now := time.Now()
		employee := models.Employee{
			EmployeeID:       id,
			AccountAddress:   account,
			YearlySalaryUSD:  yearlySalaryUSD,
			LastAllocationAt: now,
			LastPaydayAt:     now,
		}
		if err := tx.Create(&employee).Error; err != nil {
			return err
		}

		for i, allocation := range evenSplit(allowedTokens) {
			allocation.EmployeeID = id
			allocation.Position = i
			if err := tx.Create(&allocation).Error; err != nil {
				return err
			}
		}

		return tx.Save(state).Error
	})
	if err != nil {
		return 0, err
	}

	utils.Logger.Info("employee added",
		zap.Uint64("employee_id", id),
		zap.String("account", account),
		zap.Int64("yearly_salary_usd", yearlySalaryUSD))
	return id, nil
}

// evenSplit spreads 100 points across the tokens; the first token absorbs
// the remainder so the weights always sum to exactly 100.
func evenSplit(tokens []string) []models.TokenAllocation {
	base := 100 / len(tokens)
	allocations := make([]models.TokenAllocation, len(tokens))
	for i, addr := range tokens {
		weight := base
		if i == 0 {
			weight = 100 - base*(len(tokens)-1)
		}
		allocations[i] = models.TokenAllocation{
			TokenAddress: addr,
			WeightPct:    weight,
		}
	}
	return allocations
}

// SetSalary updates an employee's yearly salary and adjusts the burn rate by
// the delta of the monthly figures.
func (r *Registry) SetSalary(employeeID uint64, yearlySalaryUSD int64) error {
	if yearlySalaryUSD <= 0 {
		return types.ErrInvalidSalary
	}

	return r.DB.Transaction(func(tx *gorm.DB) error {
		var employee models.Employee
		if err := tx.First(&employee, "employee_id = ?", employeeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrUnknownEmployee
			}
			return err
		}

		state, err := loadState(tx)
		if err != nil {
			return err
		}
		state.TotalMonthlySalariesUSD += yearlySalaryUSD/12 - employee.YearlySalaryUSD/12

		employee.YearlySalaryUSD = yearlySalaryUSD
		if err := tx.Save(&employee).Error; err != nil {
			return err
		}
		return tx.Save(state).Error
	})
}

// RemoveEmployee clears the record and its allocations. The burn rate is
// decremented by the removed salary's monthly share before the record goes,
// so the aggregate always matches a recomputation over active employees.
func (r *Registry) RemoveEmployee(employeeID uint64) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		var employee models.Employee
		if err := tx.First(&employee, "employee_id = ?", employeeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return types.ErrUnknownEmployee
			}
			return err
		}

		state, err := loadState(tx)
		if err != nil {
			return err
		}
		state.TotalMonthlySalariesUSD -= employee.YearlySalaryUSD / 12

		if err := tx.Where("employee_id = ?", employeeID).Delete(&models.TokenAllocation{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&employee).Error; err != nil {
			return err
		}
		return tx.Save(state).Error
	})
}

func (r *Registry) GetEmployee(employeeID uint64) (*models.Employee, error) {
	var employee models.Employee
	err := r.DB.Preload("Allocations", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).First(&employee, "employee_id = ?", employeeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrUnknownEmployee
		}
		return nil, err
	}
	return &employee, nil
}

func (r *Registry) FindByAccount(account string) (*models.Employee, error) {
	var employee models.Employee
	err := r.DB.Preload("Allocations", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).First(&employee, "account_address = ?", account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrUnknownEmployee
		}
		return nil, err
	}
	return &employee, nil
}

func (r *Registry) ListEmployees() ([]models.Employee, error) {
	var employees []models.Employee
	err := r.DB.Preload("Allocations", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	}).Order("employee_id").Find(&employees).Error
	return employees, err
}

func (r *Registry) EmployeeCount() (int64, error) {
	var count int64
	err := r.DB.Model(&models.Employee{}).Count(&count).Error
	return count, err
}

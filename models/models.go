package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee is a payroll roster entry. EmployeeID comes from the monotonic
// counter on PayrollState and is never reused, even after removal.
type Employee struct {
	EmployeeID       uint64            `gorm:"primaryKey;autoIncrement:false" json:"employee_id"`
	AccountAddress   string            `gorm:"uniqueIndex;not null" json:"account_address"`
	YearlySalaryUSD  int64             `gorm:"not null" json:"yearly_salary_usd"` // smallest USD unit
	LastAllocationAt time.Time         `json:"last_allocation_at"`
	LastPaydayAt     time.Time         `json:"last_payday_at"`
	Allocations      []TokenAllocation `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"allocations"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// TokenAllocation is one (token, weight) pair of an employee's salary split.
// Per employee the weights sum to exactly 100; Position preserves order.
type TokenAllocation struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	EmployeeID   uint64 `gorm:"index;not null" json:"-"`
	TokenAddress string `gorm:"not null" json:"token_address"`
	WeightPct    int    `gorm:"not null" json:"weight_pct"`
	Position     int    `gorm:"not null" json:"position"`
}

// Token is a payment token tracked by the price directory. PriceUSD is an
// integer in the same USD unit as salaries; zero means "never priced".
type Token struct {
	Address        string          `gorm:"primaryKey" json:"address"`
	Symbol         string          `gorm:"uniqueIndex;not null" json:"symbol"`
	Native         bool            `json:"native"` // native-currency stand-in, paid by direct transfer
	DataSourceURL  string          `json:"data_source_url"` // oracle source; empty means not oracle-tracked
	JSONPath       string          `json:"json_path"`
	PriceUSD       decimal.Decimal `gorm:"type:decimal(78,0)" json:"price_usd"`
	PriceUpdatedAt time.Time       `json:"price_updated_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

const (
	QueryPending   = "pending"
	QueryFulfilled = "fulfilled"
	QueryRejected  = "rejected"
)

// OracleQuery is one outstanding (or settled) price question. The query
// records which token it prices, so a callback is routed by query id alone.
type OracleQuery struct {
	ID            string    `gorm:"primaryKey" json:"id"`
	TokenAddress  string    `gorm:"index;not null" json:"token_address"`
	DataSourceURL string    `json:"data_source_url"`
	JSONPath      string    `json:"json_path"`
	Status        string    `gorm:"not null;default:'pending'" json:"status"`
	IssuedAt      time.Time `json:"issued_at"`
	FulfilledAt   time.Time `json:"fulfilled_at"`
}

const (
	EntryDeposit    = "deposit"
	EntryPayout     = "payout"
	EntryWithdrawal = "withdrawal"
)

// LedgerEntry records every movement through custody. Amount is positive for
// credits and negative for debits, denominated in the named token's units.
type LedgerEntry struct {
	ID                  string          `gorm:"primaryKey" json:"id"`
	Kind                string          `gorm:"not null" json:"kind"`
	TokenAddress        string          `json:"token_address"`
	Amount              decimal.Decimal `gorm:"type:decimal(78,0)" json:"amount"`
	CounterpartyAddress string          `json:"counterparty_address"`
	CreatedAt           time.Time       `json:"created_at"`
}

// PayrollState is the singleton accounting row: the employee id counter, the
// pre-aggregated burn rate and the cached native custody balance.
type PayrollState struct {
	ID                      uint            `gorm:"primaryKey" json:"-"`
	OwnerAddress            string          `gorm:"not null" json:"owner_address"`
	NextEmployeeID          uint64          `gorm:"not null;default:1" json:"next_employee_id"`
	TotalMonthlySalariesUSD int64           `gorm:"not null;default:0" json:"total_monthly_salaries_usd"`
	CustodyBalance          decimal.Decimal `gorm:"type:decimal(78,0)" json:"custody_balance"`
	UpdatedAt               time.Time       `json:"updated_at"`
}

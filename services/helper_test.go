package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"cryptopayroll/models"
	"cryptopayroll/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	utils.Logger = zap.NewNop()
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.Employee{},
		&models.TokenAllocation{},
		&models.Token{},
		&models.OracleQuery{},
		&models.LedgerEntry{},
		&models.PayrollState{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	if err := EnsureState(db, "0xowner"); err != nil {
		t.Fatalf("Failed to seed payroll state: %v", err)
	}

	return db
}

type transferCall struct {
	Token  string
	To     string
	Amount decimal.Decimal
	Native bool
}

// mockLedger records dispatched transfers and can be told to fail.
type mockLedger struct {
	mu    sync.Mutex
	calls []transferCall
	err   error
}

func (m *mockLedger) TransferNative(_ context.Context, to string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, transferCall{To: to, Amount: amount, Native: true})
	return nil
}

func (m *mockLedger) TransferToken(_ context.Context, token, to string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls = append(m.calls, transferCall{Token: token, To: to, Amount: amount})
	return nil
}

func (m *mockLedger) transfers() []transferCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]transferCall(nil), m.calls...)
}

// mockDispatcher records issued oracle queries.
type mockDispatcher struct {
	mu      sync.Mutex
	queries []models.OracleQuery
}

func (m *mockDispatcher) DispatchQuery(_ context.Context, query *models.OracleQuery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, *query)
	return nil
}

func registerTestToken(t *testing.T, db *gorm.DB, address, symbol string, native bool, price int64) {
	t.Helper()

	token := models.Token{
		Address:       address,
		Symbol:        symbol,
		Native:        native,
		DataSourceURL: "https://rates.example.com/" + symbol,
		JSONPath:      "$.price",
		PriceUSD:      decimal.NewFromInt(price),
	}
	if price > 0 {
		token.PriceUpdatedAt = time.Now()
	}
	if err := db.Create(&token).Error; err != nil {
		t.Fatalf("Failed to create test token: %v", err)
	}
}

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cryptopayroll/config"
	"cryptopayroll/middleware"
	"cryptopayroll/models"
	"cryptopayroll/services"
	"cryptopayroll/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const (
	testOwnerAddress  = "0xowner"
	testOracleAddress = "0xoracle"
	testOracleSecret  = "test-oracle-secret"
	testOwnerPassword = "hunter2"
)

func init() {
	utils.Logger = zap.NewNop()

	hash, err := bcrypt.GenerateFromPassword([]byte(testOwnerPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}

	config.AppConfig = config.Config{
		JWTSecret:             "test-jwt-secret",
		OwnerAddress:          testOwnerAddress,
		OwnerPasswordHash:     string(hash),
		OracleCallbackAddress: testOracleAddress,
		OracleSharedSecret:    testOracleSecret,
		OracleFeeReserve:      "100",
		OracleQueryCadence:    24 * time.Hour,
		PriceMaxAge:           time.Hour,
		PaydayCooldown:        720 * time.Hour,
		AllocationCooldown:    4320 * time.Hour,
	}
}

type mockLedger struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (m *mockLedger) TransferNative(_ context.Context, _ string, _ decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls++
	return nil
}

func (m *mockLedger) TransferToken(_ context.Context, _, _ string, _ decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.calls++
	return nil
}

type mockDispatcher struct{}

func (mockDispatcher) DispatchQuery(_ context.Context, _ *models.OracleQuery) error {
	return nil
}

// SetupTest builds a fresh in-memory database, wires the service stack with
// mocked boundary clients and returns an app with the full route table.
func SetupTest(t *testing.T) (*fiber.App, *gorm.DB, *mockLedger) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
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
	if err := services.EnsureState(db, testOwnerAddress); err != nil {
		t.Fatalf("Failed to seed payroll state: %v", err)
	}

	ledger := &mockLedger{}
	registry := services.NewRegistry(db)
	priceFeed := services.NewPriceFeed(db)
	payroll := services.NewPayroll(db, ledger,
		config.AppConfig.PaydayCooldown,
		config.AppConfig.AllocationCooldown,
		config.AppConfig.PriceMaxAge)
	custody := services.NewCustody(db, ledger)
	oracle := services.NewOracleService(db, mockDispatcher{},
		config.AppConfig.OracleCallbackAddress,
		config.AppConfig.OracleSharedSecret)

	InitHandlers(db, registry, priceFeed, payroll, custody, oracle)

	app := fiber.New()
	app.Get("/health", GetHealth)
	app.Post("/auth/owner", OwnerLogin)
	app.Post("/auth/grants", middleware.RequireOwner, IssueGrant)
	app.Post("/employees", middleware.RequireOwner, AddEmployee)
	app.Patch("/employees/:id/salary", middleware.RequireOwner, SetSalary)
	app.Delete("/employees/:id", middleware.RequireOwner, RemoveEmployee)
	app.Get("/employees", GetAllEmployees)
	app.Get("/employees/count", GetEmployeeCount)
	app.Get("/employees/:id", GetEmployee)
	app.Post("/tokens", middleware.RequireOwner, RegisterToken)
	app.Get("/tokens", ListTokens)
	app.Post("/funds", middleware.RequireAuth, AddFunds)
	app.Post("/funds/emergency-withdraw", middleware.RequireOwner, EmergencyWithdraw)
	app.Get("/payroll/burnrate", GetBurnrate)
	app.Get("/payroll/runway", GetRunway)
	app.Post("/payroll/allocation", middleware.RequireEmployee, DetermineAllocation)
	app.Post("/payroll/payday", middleware.RequireEmployee, Payday)
	app.Post("/oracle/callback", middleware.RequireOracle, OracleCallback)

	return app, db, ledger
}

func createTestToken(t *testing.T, address, role string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"address": address,
		"role":    role,
		"exp":     time.Now().Add(24 * time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(config.AppConfig.JWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

func jsonRequest(t *testing.T, method, target, bearer string, body interface{}) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return req
}

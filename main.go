package main

import (
	"log"

	"cryptopayroll/config"
	"cryptopayroll/handlers"
	"cryptopayroll/middleware"
	"cryptopayroll/models"
	"cryptopayroll/services"
	"cryptopayroll/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var DB *gorm.DB

func initServices() (*cron.Cron, error) {
	var err error
	DB, err = gorm.Open(sqlite.Open(config.AppConfig.DBPath), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	err = DB.AutoMigrate(
		&models.Employee{},
		&models.TokenAllocation{},
		&models.Token{},
		&models.OracleQuery{},
		&models.LedgerEntry{},
		&models.PayrollState{},
	)
	if err != nil {
		return nil, err
	}

	if err := services.EnsureState(DB, config.AppConfig.OwnerAddress); err != nil {
		return nil, err
	}

	ledger := services.NewHTTPLedgerClient(config.AppConfig.LedgerNodeURL)
	dispatcher := services.NewHTTPOracleDispatcher(config.AppConfig.OracleEndpoint,
		config.AppConfig.OracleQueryCadence)

	registry := services.NewRegistry(DB)
	priceFeed := services.NewPriceFeed(DB)
	payroll := services.NewPayroll(DB, ledger,
		config.AppConfig.PaydayCooldown,
		config.AppConfig.AllocationCooldown,
		config.AppConfig.PriceMaxAge)
	custody := services.NewCustody(DB, ledger)
	oracle := services.NewOracleService(DB, dispatcher,
		config.AppConfig.OracleCallbackAddress,
		config.AppConfig.OracleSharedSecret)

	handlers.InitHandlers(DB, registry, priceFeed, payroll, custody, oracle)

	// Each fulfilled callback already issues the token's next query, so the
	// sweep only fires for tokens whose newest pending query outlived the
	// cadence (a lost callback or a rejected one). Checking hourly against
	// the per-token cadence keeps every token on its own offset instead of
	// piling all queries onto one midnight tick.
	cadence := config.AppConfig.OracleQueryCadence
	c := cron.New()
	if _, err := c.AddFunc("0 * * * *", func() { oracle.ReissueStale(cadence) }); err != nil {
		return nil, err
	}

	// Cover tokens that lost their callback while the process was down.
	go oracle.ReissueStale(cadence)

	return c, nil
}

func setupRoutes(app *fiber.App) {
	app.Get("/health", handlers.GetHealth)

	app.Post("/auth/owner", handlers.OwnerLogin)
	app.Post("/auth/grants", middleware.RequireOwner, handlers.IssueGrant)

	app.Post("/employees", middleware.RequireOwner, handlers.AddEmployee)
	app.Patch("/employees/:id/salary", middleware.RequireOwner, handlers.SetSalary)
	app.Delete("/employees/:id", middleware.RequireOwner, handlers.RemoveEmployee)
	app.Get("/employees", handlers.GetAllEmployees)
	app.Get("/employees/count", handlers.GetEmployeeCount)
	app.Get("/employees/:id", handlers.GetEmployee)

	app.Post("/tokens", middleware.RequireOwner, handlers.RegisterToken)
	app.Get("/tokens", handlers.ListTokens)

	app.Post("/funds", middleware.RequireAuth, handlers.AddFunds)
	app.Post("/funds/emergency-withdraw", middleware.RequireOwner, handlers.EmergencyWithdraw)

	app.Get("/payroll/burnrate", handlers.GetBurnrate)
	app.Get("/payroll/runway", handlers.GetRunway)
	app.Post("/payroll/allocation", middleware.RequireEmployee, handlers.DetermineAllocation)
	app.Post("/payroll/payday", middleware.RequireEmployee, handlers.Payday)

	app.Post("/oracle/callback", middleware.RequireOracle, handlers.OracleCallback)
}

func main() {
	config.LoadConfig()
	utils.InitLogger()

	scheduler, err := initServices()
	if err != nil {
		log.Fatal("Failed to initialize services:", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	app := fiber.New()
	setupRoutes(app)

	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}

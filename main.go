package main

import (
	"github.com/joho/godotenv"

	"github.com/andikarw/photo-market/config"
	"github.com/andikarw/photo-market/database"
	"github.com/andikarw/photo-market/router"
	"github.com/andikarw/photo-market/services"
	"github.com/andikarw/photo-market/utils"
)

func main() {
	// .env opsional; production memakai environment langsung.
	_ = godotenv.Load()

	utils.InitLogger()

	cfg := config.LoadAppConfig()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect database: %v", err)
	}
	utils.InitDB(db)

	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to migrate database: %v", err)
	}
	if err := database.SeedManualPaymentMethods(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed manual payment methods: %v", err)
	}

	gateway := services.NewTripayService(services.LoadTripayConfigFromEnv())
	if err := gateway.ValidateConfig(); err != nil {
		// Jalur manual tetap jalan tanpa kredensial gateway; cukup warning.
		utils.ErrorLogger.Printf("Gateway config incomplete, automatic payments disabled: %v", err)
	}

	notifier := services.NewNotificationService(config.LoadSMTPConfig())
	purchaseService := services.NewPurchaseService(db, gateway, notifier, cfg)
	verificationService := services.NewVerificationService(db, notifier)

	monitor := services.NewPurchaseMonitor(db, gateway, purchaseService.Reconciler())
	monitor.Start()
	defer monitor.Stop()

	r := router.SetupRouter(db, gateway, purchaseService, verificationService)

	utils.InfoLogger.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatalf("Failed to start server: %v", err)
	}
}

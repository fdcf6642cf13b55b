package services

import (
	"os"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/config"
	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

// setupTestDB membuka SQLite in-memory, migrasi model, dan seed data dasar:
// satu buyer, satu event dengan dua foto, satu rekening manual.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Photo{},
		&models.Purchase{},
		&models.ManualPaymentMethod{},
		&models.PurchaseLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db.Create(&models.User{Name: "Budi Buyer", Email: "budi@example.com", Password: "x", Role: "buyer"})
	db.Create(&models.Event{Title: "Marathon Jakarta", Slug: "marathon-jakarta"})
	db.Create(&models.Photo{EventID: 1, Title: "Finish Line", Price: 15000})
	db.Create(&models.Photo{EventID: 1, Title: "Start Line", Price: 500})
	db.Create(&models.ManualPaymentMethod{
		BankName:      "BCA",
		AccountNumber: "1234567890",
		AccountHolder: "PT Photo Market",
		Active:        true,
	})

	return db
}

func testAppConfig() config.AppConfig {
	cfg := config.LoadAppConfig()
	cfg.MinimumGatewayAmount = 1000
	return cfg
}

func silentNotifier() *NotificationService {
	// Host kosong: email dilewati, hanya tercatat di debug log.
	return NewNotificationService(config.SMTPConfig{})
}

func countPurchases(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Purchase{}).Count(&n).Error; err != nil {
		t.Fatalf("failed to count purchases: %v", err)
	}
	return n
}

func lastLogAction(t *testing.T, db *gorm.DB, action string) *models.PurchaseLog {
	t.Helper()
	var entry models.PurchaseLog
	err := db.Where("action = ?", action).Order("id DESC").First(&entry).Error
	if err != nil {
		return nil
	}
	return &entry
}

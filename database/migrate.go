package database

import (
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/models"
)

// Migrate menjalankan AutoMigrate seluruh model. Unique index komposit
// (buyer_id, photo_id) pada purchases ikut terbentuk di sini; index itu
// yang menjadi penegak invariant satu-baris-per-pasangan.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Photo{},
		&models.Purchase{},
		&models.ManualPaymentMethod{},
		&models.PurchaseLog{},
	)
}

// SeedManualPaymentMethods mengisi rekening transfer manual default bila
// tabel masih kosong, supaya jalur fallback selalu punya instruksi.
func SeedManualPaymentMethods(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ManualPaymentMethod{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	methods := []models.ManualPaymentMethod{
		{
			BankName:      "BCA",
			AccountNumber: "8830041756",
			AccountHolder: "PT Photo Market Indonesia",
			Instructions:  "Sertakan kode transaksi pada berita transfer",
			Active:        true,
		},
		{
			BankName:      "Mandiri",
			AccountNumber: "1370015824907",
			AccountHolder: "PT Photo Market Indonesia",
			Instructions:  "Sertakan kode transaksi pada berita transfer",
			Active:        true,
		},
	}
	return db.Create(&methods).Error
}

package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andikarw/photo-market/models"
)

// PurchaseStore membungkus akses database untuk Purchase. Invariant satu
// baris per (buyer, photo) ditegakkan di sini lewat unique index plus upsert
// atomik, bukan lewat read-then-write di layer service.
type PurchaseStore struct {
	db *gorm.DB
}

func NewPurchaseStore(db *gorm.DB) *PurchaseStore {
	return &PurchaseStore{db: db}
}

// FindByBuyerAndPhoto mengembalikan (nil, nil) bila belum ada baris.
func (s *PurchaseStore) FindByBuyerAndPhoto(buyerID, photoID uint) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.Where("buyer_id = ? AND photo_id = ?", buyerID, photoID).First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindByReference mencari purchase lewat referensi gateway.
func (s *PurchaseStore) FindByReference(reference string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.Where("payment_reference = ?", reference).First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReconciliationTargetMissing
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

func (s *PurchaseStore) FindByTransactionID(transactionID string) (*models.Purchase, error) {
	var purchase models.Purchase
	err := s.db.Where("transaction_id = ?", transactionID).First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReconciliationTargetMissing
	}
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// purchaseUpsertColumns adalah kolom yang ditimpa ketika sebuah baris
// (buyer, photo) dipakai ulang untuk attempt baru. Field manual/gateway dari
// attempt lama ikut tertimpa nilai kosong attempt baru.
var purchaseUpsertColumns = []string{
	"amount", "total_amount", "payment_type", "payment_method", "payment_status",
	"transaction_id", "payment_reference", "payment_checkout_url", "payment_code",
	"payment_note", "payment_proof_url", "manual_payment_method_id", "verified_by",
	"verified_at", "status_version", "gateway_payload", "purchased_at", "paid_at",
	"expires_at", "updated_at",
}

// UpsertByBuyerPhoto menulis purchase secara atomik: insert bila pasangan
// (buyer, photo) belum ada, update in-place bila sudah. Dua createPurchase
// bersamaan untuk pasangan yang sama berakhir di baris yang sama.
func (s *PurchaseStore) UpsertByBuyerPhoto(purchase *models.Purchase) error {
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "buyer_id"}, {Name: "photo_id"}},
		DoUpdates: clause.AssignmentColumns(purchaseUpsertColumns),
	}).Create(purchase).Error
	if err != nil {
		return fmt.Errorf("failed to upsert purchase: %w", err)
	}

	// Reload supaya ID dan timestamp baris hasil conflict-update ikut terisi.
	return s.db.Where("buyer_id = ? AND photo_id = ?", purchase.BuyerID, purchase.PhotoID).
		First(purchase).Error
}

func (s *PurchaseStore) Save(purchase *models.Purchase) error {
	return s.db.Save(purchase).Error
}

package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/realtime"
	"github.com/andikarw/photo-market/utils"
)

// VerificationService menangani keputusan admin atas pembelian transfer
// manual: approve menandai paid dan menjual fotonya, reject menandai failed.
type VerificationService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier *NotificationService
}

func NewVerificationService(db *gorm.DB, notifier *NotificationService) *VerificationService {
	return &VerificationService{
		db:       db,
		audit:    NewAuditService(db),
		notifier: notifier,
	}
}

// Approve menyetujui transfer manual yang pending.
func (s *VerificationService) Approve(purchaseID, adminID uint) (*models.Purchase, error) {
	purchase, err := s.loadPendingManual(purchaseID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		purchase.PaymentStatus = PaymentStatusPaid
		purchase.PaidAt = &now
		purchase.VerifiedBy = &adminID
		purchase.VerifiedAt = &now
		purchase.StatusVersion++

		if err := tx.Save(purchase).Error; err != nil {
			return fmt.Errorf("failed to approve purchase: %w", err)
		}
		if err := tx.Model(&models.Photo{}).Where("id = ?", purchase.PhotoID).
			Update("sold", true).Error; err != nil {
			return fmt.Errorf("failed to mark photo sold: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(&purchase.ID, LogManualApproved, fmt.Sprintf("disetujui oleh admin %d", adminID))
	utils.InfoLogger.Printf("Manual purchase %s approved by admin %d", purchase.TransactionID, adminID)
	realtime.BroadcastPurchaseUpdate(*purchase)

	var photo models.Photo
	if err := s.db.First(&photo, purchase.PhotoID).Error; err == nil {
		realtime.BroadcastPhotoSoldChanged(photo)
	}

	var buyer models.User
	if err := s.db.First(&buyer, purchase.BuyerID).Error; err == nil {
		s.notifier.SendPaymentApproved(buyer.Email, buyer.Name, purchase)
	}

	return purchase, nil
}

// Reject menolak transfer manual yang pending. Flag sold foto tidak
// disentuh karena tidak pernah ter-set untuk attempt ini.
func (s *VerificationService) Reject(purchaseID, adminID uint, reason string) (*models.Purchase, error) {
	purchase, err := s.loadPendingManual(purchaseID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	purchase.PaymentStatus = PaymentStatusFailed
	purchase.VerifiedBy = &adminID
	purchase.VerifiedAt = &now
	purchase.StatusVersion++
	if err := s.db.Save(purchase).Error; err != nil {
		return nil, fmt.Errorf("failed to reject purchase: %w", err)
	}

	note := fmt.Sprintf("ditolak oleh admin %d", adminID)
	if reason != "" {
		note += ": " + reason
	}
	s.audit.Record(&purchase.ID, LogManualRejected, note)
	utils.InfoLogger.Printf("Manual purchase %s rejected by admin %d", purchase.TransactionID, adminID)
	realtime.BroadcastPurchaseUpdate(*purchase)

	return purchase, nil
}

func (s *VerificationService) loadPendingManual(purchaseID uint) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := s.db.First(&purchase, purchaseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReconciliationTargetMissing
		}
		return nil, err
	}
	if purchase.PaymentType != PaymentTypeManual || purchase.PaymentStatus != PaymentStatusPending {
		return nil, ErrInvalidStateTransition
	}
	return &purchase, nil
}

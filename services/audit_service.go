package services

import (
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/utils"
)

// Action tag untuk PurchaseLog
const (
	LogManualCreated    = "manual_created"
	LogAutomaticCreated = "automatic_created"
	LogPendingReplaced  = "pending_replaced"
	LogRetryInitiated   = "retry_initiated"
	LogSnapshotApplied  = "snapshot_applied"
	LogSnapshotStale    = "snapshot_stale"
	LogManualApproved   = "manual_approved"
	LogManualRejected   = "manual_rejected"
	LogProofUploaded    = "proof_uploaded"
	LogAttemptExpired   = "attempt_expired"
	LogCreateFailed     = "create_failed"
)

// AuditService menulis jejak audit append-only. Kegagalan menulis log tidak
// boleh menggagalkan transaksi pembelian, cukup tercatat di error log.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Record(purchaseID *uint, action, note string) {
	entry := models.PurchaseLog{
		PurchaseID: purchaseID,
		Action:     action,
		Note:       note,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		utils.ErrorLogger.Printf("Failed to write purchase log (%s): %v", action, err)
	}
}

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

// Snapshot adalah potret status transaksi yang dilaporkan gateway, baik
// lewat webhook, polling monitor, maupun sync manual dari buyer.
type Snapshot struct {
	Reference   string
	Status      string // kosakata gateway: UNPAID/PAID/EXPIRED/FAILED/REFUND
	TotalAmount *float64
	CheckoutURL string
	PayCode     string
	Note        string
	PaidAt      int64 // epoch detik, 0 bila belum dibayar
	ExpiredAt   int64 // epoch detik, 0 bila tidak ada
	Raw         []byte
}

// ReconcileService menerapkan snapshot status gateway ke Purchase lokal dan
// meneruskan efeknya ke flag sold foto.
type ReconcileService struct {
	db       *gorm.DB
	audit    *AuditService
	notifier *NotificationService
}

func NewReconcileService(db *gorm.DB, notifier *NotificationService) *ReconcileService {
	return &ReconcileService{
		db:       db,
		audit:    NewAuditService(db),
		notifier: notifier,
	}
}

// ApplySnapshot idempoten: snapshot yang sama diterapkan dua kali
// menghasilkan state akhir yang sama, dan snapshot basi (mis. UNPAID yang
// datang setelah PAID) ditolak tanpa error supaya status tidak mundur.
func (r *ReconcileService) ApplySnapshot(snap Snapshot) (*models.Purchase, error) {
	newStatus := MapTransactionStatus(snap.Status)
	if newStatus == PaymentStatusUnknown {
		return nil, &GatewayError{
			Kind:    GatewayErrRejected,
			Message: fmt.Sprintf("unrecognized gateway status %q for reference %s", snap.Status, snap.Reference),
		}
	}

	var (
		purchase      models.Purchase
		stale         bool
		statusChanged bool
	)
	err := r.db.Transaction(func(tx *gorm.DB) error {
		// Guard dievaluasi di dalam transaksi, dan update memakai
		// status_version di klausa WHERE sebagai compare-and-swap: dua
		// snapshot yang lolos guard bersamaan tidak bisa saling menimpa.
		err := tx.Where("payment_reference = ?", snap.Reference).First(&purchase).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReconciliationTargetMissing
		}
		if err != nil {
			return err
		}

		if !allowTransition(purchase.PaymentStatus, newStatus, snap.Status) {
			stale = true
			return nil
		}

		seenVersion := purchase.StatusVersion
		statusChanged = purchase.PaymentStatus != newStatus

		applySnapshotFields(&purchase, snap)
		purchase.PaymentStatus = newStatus
		if statusChanged {
			purchase.StatusVersion++
		}
		if newStatus == PaymentStatusPaid && purchase.PaidAt == nil {
			now := time.Now()
			purchase.PaidAt = &now
		}

		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND status_version = ?", purchase.ID, seenVersion).
			Select("*").Omit("id", "created_at").Updates(purchase)
		if res.Error != nil {
			return fmt.Errorf("failed to update purchase: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			// Snapshot lain menang duluan; muat state pemenang untuk caller.
			stale = true
			return tx.First(&purchase, purchase.ID).Error
		}

		// Flag sold mengikuti status pembayaran, di transaksi yang sama.
		sold := newStatus == PaymentStatusPaid
		if err := tx.Model(&models.Photo{}).Where("id = ?", purchase.PhotoID).
			Update("sold", sold).Error; err != nil {
			return fmt.Errorf("failed to update photo sold flag: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stale {
		r.audit.Record(&purchase.ID, LogSnapshotStale,
			fmt.Sprintf("snapshot %s diabaikan, status lokal %s (version %d)",
				snap.Status, purchase.PaymentStatus, purchase.StatusVersion))
		return &purchase, nil
	}

	r.audit.Record(&purchase.ID, LogSnapshotApplied,
		fmt.Sprintf("status gateway %s -> %s (version %d)", snap.Status, newStatus, purchase.StatusVersion))

	if statusChanged {
		utils.InfoLogger.Printf("Purchase %s reconciled to %s", purchase.TransactionID, newStatus)
		realtime.BroadcastPurchaseUpdate(purchase)

		var photo models.Photo
		if err := r.db.First(&photo, purchase.PhotoID).Error; err == nil {
			realtime.BroadcastPhotoSoldChanged(photo)
		}

		if newStatus == PaymentStatusPaid && r.notifier != nil {
			var buyer models.User
			if err := r.db.First(&buyer, purchase.BuyerID).Error; err == nil {
				r.notifier.SendPaymentSuccess(buyer.Email, buyer.Name, &purchase)
			}
		}
	}

	return &purchase, nil
}

// allowTransition menolak snapshot yang akan membuat status mundur.
// pending boleh pindah ke mana saja; paid hanya bisa keluar lewat REFUND
// (chargeback); expired/failed masih bisa naik ke paid bila settlement
// terlambat dilaporkan.
func allowTransition(current, next, rawStatus string) bool {
	if current == next {
		return true
	}
	switch current {
	case PaymentStatusPending:
		return true
	case PaymentStatusPaid:
		return next == PaymentStatusFailed && rawStatus == GatewayStatusRefund
	case PaymentStatusExpired, PaymentStatusFailed:
		return next == PaymentStatusPaid
	}
	return false
}

func applySnapshotFields(purchase *models.Purchase, snap Snapshot) {
	if snap.TotalAmount != nil {
		purchase.TotalAmount = snap.TotalAmount
	}
	if snap.CheckoutURL != "" {
		purchase.PaymentCheckoutURL = snap.CheckoutURL
	}
	if snap.PayCode != "" {
		purchase.PaymentCode = snap.PayCode
	}
	if snap.Note != "" {
		purchase.PaymentNote = snap.Note
	}
	if snap.PaidAt > 0 {
		paidAt := time.Unix(snap.PaidAt, 0)
		purchase.PaidAt = &paidAt
	}
	if snap.ExpiredAt > 0 {
		expiresAt := time.Unix(snap.ExpiredAt, 0)
		purchase.ExpiresAt = &expiresAt
	}
	if len(snap.Raw) > 0 {
		purchase.GatewayPayload = snap.Raw
	}
}

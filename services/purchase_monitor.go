package services

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/utils"
)

// PurchaseMonitor adalah goroutine latar yang menandai purchase pending
// yang lewat batas waktu sebagai expired, dan menjelang batas waktu
// mencocokkan ulang attempt automatic dengan status gateway.
type PurchaseMonitor struct {
	db         *gorm.DB
	gateway    *TripayService
	audit      *AuditService
	reconciler *ReconcileService

	Interval time.Duration
	stopCh   chan struct{}
}

func NewPurchaseMonitor(db *gorm.DB, gateway *TripayService, reconciler *ReconcileService) *PurchaseMonitor {
	return &PurchaseMonitor{
		db:         db,
		gateway:    gateway,
		audit:      NewAuditService(db),
		reconciler: reconciler,
		Interval:   5 * time.Minute,
		stopCh:     make(chan struct{}),
	}
}

func (m *PurchaseMonitor) Start() {
	go m.run()
	utils.InfoLogger.Println("Purchase monitor started")
}

func (m *PurchaseMonitor) Stop() {
	close(m.stopCh)
}

func (m *PurchaseMonitor) run() {
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stopCh:
			return
		}
	}
}

// Sweep memproses satu putaran pemeriksaan. Dipisah dari run() supaya bisa
// dipanggil langsung dari test.
func (m *PurchaseMonitor) Sweep() {
	var pendings []models.Purchase
	if err := m.db.Where("payment_status = ?", PaymentStatusPending).Find(&pendings).Error; err != nil {
		utils.ErrorLogger.Printf("Error loading pending purchases: %v", err)
		return
	}

	now := time.Now()
	for i := range pendings {
		purchase := &pendings[i]
		if purchase.ExpiresAt == nil {
			continue
		}

		if now.After(*purchase.ExpiresAt) {
			m.expire(purchase)
			continue
		}

		// Menjelang kedaluwarsa (10 menit terakhir), cek status terbaru di
		// gateway; webhook bisa saja tidak sampai.
		if purchase.PaymentType == PaymentTypeAutomatic &&
			purchase.PaymentReference != nil &&
			now.After(purchase.ExpiresAt.Add(-10*time.Minute)) {
			m.recheck(purchase)
		}
	}
}

func (m *PurchaseMonitor) expire(purchase *models.Purchase) {
	purchase.PaymentStatus = PaymentStatusExpired
	purchase.StatusVersion++
	if err := m.db.Save(purchase).Error; err != nil {
		utils.ErrorLogger.Printf("Error expiring purchase %s: %v", purchase.TransactionID, err)
		return
	}
	m.audit.Record(&purchase.ID, LogAttemptExpired,
		fmt.Sprintf("lewat batas waktu %s", purchase.ExpiresAt.Format(time.RFC3339)))
	utils.InfoLogger.Printf("Purchase %s expired", purchase.TransactionID)
}

func (m *PurchaseMonitor) recheck(purchase *models.Purchase) {
	detail, err := m.gateway.GetTransactionDetail(*purchase.PaymentReference)
	if err != nil {
		utils.ErrorLogger.Printf("Error checking gateway status for %s: %v", purchase.TransactionID, err)
		return
	}
	if MapTransactionStatus(detail.Status) == purchase.PaymentStatus {
		return
	}
	if _, err := m.reconciler.ApplySnapshot(snapshotFromTransaction(detail)); err != nil {
		utils.ErrorLogger.Printf("Error reconciling %s from monitor: %v", purchase.TransactionID, err)
	}
}

package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/models"
)

func seedAutomaticPurchase(t *testing.T, db *gorm.DB, status string) *models.Purchase {
	t.Helper()
	reference := "DEV-REF-001"
	purchase := &models.Purchase{
		BuyerID:          1,
		PhotoID:          1,
		Amount:           15000,
		PaymentType:      PaymentTypeAutomatic,
		PaymentMethod:    "BRIVA",
		PaymentStatus:    status,
		TransactionID:    "TRX-1-TESTCASE",
		PaymentReference: &reference,
		PurchasedAt:      time.Now(),
	}
	if err := db.Create(purchase).Error; err != nil {
		t.Fatalf("failed to seed purchase: %v", err)
	}
	return purchase
}

func TestApplySnapshotPaid(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewReconcileService(db, silentNotifier())
	seedAutomaticPurchase(t, db, PaymentStatusPending)

	paidAt := time.Now().Unix()
	purchase, err := reconciler.ApplySnapshot(Snapshot{
		Reference: "DEV-REF-001",
		Status:    "PAID",
		PaidAt:    paidAt,
	})
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, purchase.PaymentStatus)
	assert.NotNil(t, purchase.PaidAt)
	assert.Equal(t, uint(1), purchase.StatusVersion)

	// Flag sold foto ikut naik di transaksi yang sama.
	var photo models.Photo
	db.First(&photo, purchase.PhotoID)
	assert.True(t, photo.Sold)

	entry := lastLogAction(t, db, LogSnapshotApplied)
	assert.NotNil(t, entry)
}

func TestApplySnapshotIdempotent(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewReconcileService(db, silentNotifier())
	seedAutomaticPurchase(t, db, PaymentStatusPending)

	snap := Snapshot{Reference: "DEV-REF-001", Status: "PAID"}

	first, err := reconciler.ApplySnapshot(snap)
	assert.NoError(t, err)
	second, err := reconciler.ApplySnapshot(snap)
	assert.NoError(t, err)

	assert.Equal(t, first.PaymentStatus, second.PaymentStatus)
	// Versi hanya naik saat status benar-benar berubah.
	assert.Equal(t, first.StatusVersion, second.StatusVersion)
}

func TestStaleSnapshotIgnored(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewReconcileService(db, silentNotifier())
	seedAutomaticPurchase(t, db, PaymentStatusPending)

	_, err := reconciler.ApplySnapshot(Snapshot{Reference: "DEV-REF-001", Status: "PAID"})
	assert.NoError(t, err)

	// UNPAID yang datang terlambat tidak boleh menurunkan status.
	purchase, err := reconciler.ApplySnapshot(Snapshot{Reference: "DEV-REF-001", Status: "UNPAID"})
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, purchase.PaymentStatus)

	var photo models.Photo
	db.First(&photo, purchase.PhotoID)
	assert.True(t, photo.Sold)

	entry := lastLogAction(t, db, LogSnapshotStale)
	assert.NotNil(t, entry)
}

func TestConcurrentSnapshotsConvergeToPaid(t *testing.T) {
	// PAID dan EXPIRED diterapkan bersamaan dari dua goroutine. Apapun
	// urutannya hasil akhirnya paid: EXPIRED yang datang belakangan ditolak
	// guard, PAID yang datang belakangan adalah late settlement yang sah.
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	reconciler := NewReconcileService(db, silentNotifier())
	seedAutomaticPurchase(t, db, PaymentStatusPending)

	var wg sync.WaitGroup
	for _, status := range []string{"PAID", "EXPIRED"} {
		wg.Add(1)
		go func(status string) {
			defer wg.Done()
			_, err := reconciler.ApplySnapshot(Snapshot{Reference: "DEV-REF-001", Status: status})
			assert.NoError(t, err)
		}(status)
	}
	wg.Wait()

	var got models.Purchase
	assert.NoError(t, db.Where("payment_reference = ?", "DEV-REF-001").First(&got).Error)
	assert.Equal(t, PaymentStatusPaid, got.PaymentStatus)

	var photo models.Photo
	assert.NoError(t, db.First(&photo, got.PhotoID).Error)
	assert.True(t, photo.Sold)
}

func TestRefundLeavesPaid(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewReconcileService(db, silentNotifier())
	seedAutomaticPurchase(t, db, PaymentStatusPending)

	_, err := reconciler.ApplySnapshot(Snapshot{Reference: "DEV-REF-001", Status: "PAID"})
	assert.NoError(t, err)

	// FAILED biasa ditolak setelah paid...
	purchase, err := reconciler.ApplySnapshot(Snapshot{Reference: "DEV-REF-001", Status: "FAILED"})
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, purchase.PaymentStatus)

	// ...tapi REFUND adalah jalur sah keluar dari paid.
	purchase, err = reconciler.ApplySnapshot(Snapshot{Reference: "DEV-REF-001", Status: "REFUND"})
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusFailed, purchase.PaymentStatus)

	var photo models.Photo
	db.First(&photo, purchase.PhotoID)
	assert.False(t, photo.Sold)
}

func TestLateSettlementAfterExpired(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewReconcileService(db, silentNotifier())
	seedAutomaticPurchase(t, db, PaymentStatusExpired)

	purchase, err := reconciler.ApplySnapshot(Snapshot{Reference: "DEV-REF-001", Status: "PAID"})
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusPaid, purchase.PaymentStatus)
}

func TestUnknownStatusRejected(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewReconcileService(db, silentNotifier())
	seedAutomaticPurchase(t, db, PaymentStatusPending)

	_, err := reconciler.ApplySnapshot(Snapshot{Reference: "DEV-REF-001", Status: "HALF_PAID"})
	var ge *GatewayError
	assert.True(t, errors.As(err, &ge))
	assert.Equal(t, GatewayErrRejected, ge.Kind)
}

func TestSnapshotForUnknownReference(t *testing.T) {
	db := setupTestDB(t)
	reconciler := NewReconcileService(db, silentNotifier())

	_, err := reconciler.ApplySnapshot(Snapshot{Reference: "DEV-REF-404", Status: "PAID"})
	assert.ErrorIs(t, err, ErrReconciliationTargetMissing)
}

func TestAllowTransitionTable(t *testing.T) {
	tests := []struct {
		current, next, raw string
		want               bool
	}{
		{PaymentStatusPending, PaymentStatusPaid, "PAID", true},
		{PaymentStatusPending, PaymentStatusExpired, "EXPIRED", true},
		{PaymentStatusPaid, PaymentStatusPending, "UNPAID", false},
		{PaymentStatusPaid, PaymentStatusFailed, "FAILED", false},
		{PaymentStatusPaid, PaymentStatusFailed, "REFUND", true},
		{PaymentStatusExpired, PaymentStatusPaid, "PAID", true},
		{PaymentStatusFailed, PaymentStatusPaid, "PAID", true},
		{PaymentStatusExpired, PaymentStatusFailed, "FAILED", false},
		{PaymentStatusPaid, PaymentStatusPaid, "PAID", true},
	}
	for _, tt := range tests {
		got := allowTransition(tt.current, tt.next, tt.raw)
		assert.Equal(t, tt.want, got, "%s -> %s (%s)", tt.current, tt.next, tt.raw)
	}
}

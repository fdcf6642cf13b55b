package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/config"
	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/realtime"
	"github.com/andikarw/photo-market/utils"
)

// PurchaseService adalah orkestrator pembelian: memutuskan reuse vs attempt
// baru, memilih jalur automatic vs manual, memanggil gateway, dan menerapkan
// kebijakan fallback saat gateway tidak bisa dihubungi.
type PurchaseService struct {
	db         *gorm.DB
	gateway    *TripayService
	store      *PurchaseStore
	audit      *AuditService
	notifier   *NotificationService
	reconciler *ReconcileService

	minimumGatewayAmount float64
	manualExpiry         time.Duration
	gatewayExpiry        time.Duration
}

func NewPurchaseService(db *gorm.DB, gateway *TripayService, notifier *NotificationService, cfg config.AppConfig) *PurchaseService {
	return &PurchaseService{
		db:                   db,
		gateway:              gateway,
		store:                NewPurchaseStore(db),
		audit:                NewAuditService(db),
		notifier:             notifier,
		reconciler:           NewReconcileService(db, notifier),
		minimumGatewayAmount: cfg.MinimumGatewayAmount,
		manualExpiry:         cfg.ManualPaymentExpiry,
		gatewayExpiry:        24 * time.Hour,
	}
}

// Reconciler mengekspos reconciler yang sama ke controller webhook/monitor.
func (s *PurchaseService) Reconciler() *ReconcileService {
	return s.reconciler
}

type CreatePurchaseInput struct {
	BuyerID       uint
	PhotoID       uint
	PaymentMethod string // kode channel gateway, atau "manual_transfer"
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

type CreatePurchaseResult struct {
	Purchase *models.Purchase `json:"purchase"`

	// Diisi untuk jalur automatic.
	CheckoutURL string `json:"checkout_url,omitempty"`
	PayCode     string `json:"pay_code,omitempty"`
	Reference   string `json:"reference,omitempty"`

	// Diisi untuk jalur manual: rekening tujuan transfer.
	ManualInstructions []models.ManualPaymentMethod `json:"manual_instructions,omitempty"`
}

// CreatePurchase menjalankan algoritma pembuatan pembelian.
//
// Baris purchase lama yang failed/expired dipakai ulang (id tetap,
// transaction_id baru). Kegagalan konektivitas gateway tidak pernah sampai
// ke caller: buyer diturunkan ke jalur transfer manual secara transparan.
func (s *PurchaseService) CreatePurchase(in CreatePurchaseInput) (*CreatePurchaseResult, error) {
	automatic := in.PaymentMethod != ManualTransferMethod

	if automatic {
		if err := s.gateway.ValidateConfig(); err != nil {
			s.audit.Record(nil, LogCreateFailed, err.Error())
			return nil, err
		}
	}

	var photo models.Photo
	if err := s.db.First(&photo, in.PhotoID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPhotoNotFound
		}
		return nil, err
	}
	if photo.Sold {
		return nil, ErrAlreadySold
	}

	existing, err := s.store.FindByBuyerAndPhoto(in.BuyerID, in.PhotoID)
	if err != nil {
		return nil, err
	}

	// Segarkan dulu state lokal dari gateway sebelum memutuskan reuse,
	// supaya keputusan tidak dibuat di atas status yang basi.
	existing = s.refreshFromGateway(existing)

	if existing != nil {
		switch existing.PaymentStatus {
		case PaymentStatusPaid:
			return nil, ErrAlreadyPurchased

		case PaymentStatusPending:
			requestedType := PaymentTypeManual
			if automatic {
				requestedType = PaymentTypeAutomatic
			}
			if existing.PaymentType == requestedType && existing.Amount == photo.Price {
				// Attempt yang sama masih berjalan: kembalikan artefak
				// checkout yang ada, jangan buat transaksi gateway baru.
				return s.buildResult(existing)
			}
			existing.PaymentStatus = PaymentStatusFailed
			existing.StatusVersion++
			if err := s.store.Save(existing); err != nil {
				return nil, err
			}
			s.audit.Record(&existing.ID, LogPendingReplaced,
				fmt.Sprintf("attempt pending %s digantikan oleh request %s senilai %.0f",
					existing.PaymentMethod, in.PaymentMethod, photo.Price))

		case PaymentStatusFailed, PaymentStatusExpired:
			s.audit.Record(&existing.ID, LogRetryInitiated,
				fmt.Sprintf("attempt %s dipakai ulang untuk percobaan baru", existing.PaymentStatus))
		}
	}

	if automatic && photo.Price < s.minimumGatewayAmount {
		return nil, ErrBelowMinimumAmount
	}

	transactionID := newTransactionID(photo.ID)

	if !automatic {
		return s.createManual(in, &photo, transactionID, "")
	}
	return s.createAutomatic(in, &photo, transactionID)
}

// refreshFromGateway menarik status terkini untuk attempt automatic yang
// masih pending. Gagal menghubungi gateway bukan masalah di sini; state
// lokal dipakai apa adanya.
func (s *PurchaseService) refreshFromGateway(existing *models.Purchase) *models.Purchase {
	if existing == nil ||
		existing.PaymentStatus != PaymentStatusPending ||
		existing.PaymentType != PaymentTypeAutomatic ||
		existing.PaymentReference == nil {
		return existing
	}

	detail, err := s.gateway.GetTransactionDetail(*existing.PaymentReference)
	if err != nil {
		utils.InfoLogger.Printf("Skipping pre-create refresh for %s: %v", existing.TransactionID, err)
		return existing
	}
	if MapTransactionStatus(detail.Status) == existing.PaymentStatus {
		return existing
	}

	refreshed, err := s.reconciler.ApplySnapshot(snapshotFromTransaction(detail))
	if err != nil {
		utils.ErrorLogger.Printf("Pre-create reconcile for %s failed: %v", existing.TransactionID, err)
		return existing
	}
	return refreshed
}

func (s *PurchaseService) createManual(in CreatePurchaseInput, photo *models.Photo, transactionID, cause string) (*CreatePurchaseResult, error) {
	now := time.Now()
	expiresAt := now.Add(s.manualExpiry)

	purchase := &models.Purchase{
		BuyerID:       in.BuyerID,
		PhotoID:       in.PhotoID,
		Amount:        photo.Price,
		PaymentType:   PaymentTypeManual,
		PaymentMethod: ManualTransferMethod,
		PaymentStatus: PaymentStatusPending,
		TransactionID: transactionID,
		PurchasedAt:   now,
		ExpiresAt:     &expiresAt,
	}
	if err := s.store.UpsertByBuyerPhoto(purchase); err != nil {
		return nil, err
	}

	note := "pembelian manual dibuat"
	if cause != "" {
		note = "fallback dari jalur automatic: " + cause
	}
	s.audit.Record(&purchase.ID, LogManualCreated, note)
	utils.InfoLogger.Printf("Manual purchase %s created for buyer %d photo %d", transactionID, in.BuyerID, in.PhotoID)

	methods, err := s.activeManualMethods()
	if err != nil {
		return nil, err
	}

	s.notifier.SendManualInvoice(in.CustomerEmail, in.CustomerName, purchase, methods)
	realtime.BroadcastPurchaseUpdate(*purchase)

	return &CreatePurchaseResult{
		Purchase:           purchase,
		ManualInstructions: methods,
	}, nil
}

func (s *PurchaseService) createAutomatic(in CreatePurchaseInput, photo *models.Photo, transactionID string) (*CreatePurchaseResult, error) {
	items := []TransactionItem{{
		SKU:      fmt.Sprintf("PHOTO-%d", photo.ID),
		Name:     photo.Title,
		Price:    photo.Price,
		Quantity: 1,
	}}
	customer := CustomerDetail{
		Name:  in.CustomerName,
		Email: in.CustomerEmail,
		Phone: in.CustomerPhone,
	}

	tr, err := s.gateway.CreateTransaction(in.PaymentMethod, transactionID, photo.Price, customer, items, int64(s.gatewayExpiry.Seconds()))
	if err != nil {
		if IsGatewayConnectivity(err) {
			// Gateway tidak bisa dihubungi: buyer diturunkan ke transfer
			// manual, error aslinya cukup tercatat di audit log.
			utils.ErrorLogger.Printf("Gateway unreachable, falling back to manual transfer: %v", err)
			return s.createManual(in, photo, transactionID, err.Error())
		}
		s.audit.Record(nil, LogCreateFailed, err.Error())
		return nil, err
	}

	now := time.Now()
	total := tr.TotalAmount
	purchase := &models.Purchase{
		BuyerID:            in.BuyerID,
		PhotoID:            in.PhotoID,
		Amount:             photo.Price,
		TotalAmount:        &total,
		PaymentType:        PaymentTypeAutomatic,
		PaymentMethod:      in.PaymentMethod,
		PaymentStatus:      PaymentStatusPending,
		TransactionID:      transactionID,
		PaymentReference:   &tr.Reference,
		PaymentCheckoutURL: tr.CheckoutURL,
		PaymentCode:        tr.PayCode,
		PaymentNote:        tr.Note,
		GatewayPayload:     tr.Raw,
		PurchasedAt:        now,
	}
	if tr.ExpiredAt > 0 {
		expiresAt := time.Unix(tr.ExpiredAt, 0)
		purchase.ExpiresAt = &expiresAt
	}

	if err := s.store.UpsertByBuyerPhoto(purchase); err != nil {
		return nil, err
	}

	s.audit.Record(&purchase.ID, LogAutomaticCreated,
		fmt.Sprintf("transaksi gateway %s dibuat via %s", tr.Reference, in.PaymentMethod))
	utils.InfoLogger.Printf("Automatic purchase %s created, gateway reference %s", transactionID, tr.Reference)

	// Echo create kadang sudah membawa status final (channel instan bisa
	// langsung PAID). Status non-pending diterapkan lewat reconciler supaya
	// paid_at dan flag sold foto ikut ter-cascade.
	echoStatus := MapTransactionStatus(tr.Status)
	if echoStatus != PaymentStatusPending && echoStatus != PaymentStatusUnknown {
		reconciled, err := s.reconciler.ApplySnapshot(snapshotFromTransaction(tr))
		if err != nil {
			return nil, err
		}
		purchase = reconciled
	}

	s.notifier.SendAutomaticInvoice(in.CustomerEmail, in.CustomerName, purchase)
	realtime.BroadcastPurchaseUpdate(*purchase)

	return s.buildResult(purchase)
}

// SyncStatus menarik status gateway on-demand untuk satu transaksi milik
// buyer lalu menerapkannya. Purchase manual tidak punya referensi gateway,
// jadi dikembalikan apa adanya.
func (s *PurchaseService) SyncStatus(transactionID string) (*models.Purchase, error) {
	purchase, err := s.store.FindByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	if purchase.PaymentReference == nil {
		return purchase, nil
	}

	detail, err := s.gateway.GetTransactionDetail(*purchase.PaymentReference)
	if err != nil {
		return nil, err
	}
	return s.reconciler.ApplySnapshot(snapshotFromTransaction(detail))
}

// AttachProof menempelkan bukti transfer pada purchase manual yang pending.
func (s *PurchaseService) AttachProof(transactionID, proofURL string, manualMethodID *uint) (*models.Purchase, error) {
	purchase, err := s.store.FindByTransactionID(transactionID)
	if err != nil {
		return nil, err
	}
	if purchase.PaymentType != PaymentTypeManual || purchase.PaymentStatus != PaymentStatusPending {
		return nil, ErrInvalidStateTransition
	}

	purchase.PaymentProofURL = proofURL
	purchase.ManualPaymentMethodID = manualMethodID
	if err := s.store.Save(purchase); err != nil {
		return nil, err
	}

	s.audit.Record(&purchase.ID, LogProofUploaded, proofURL)
	realtime.BroadcastProofUploaded(*purchase)
	return purchase, nil
}

func (s *PurchaseService) activeManualMethods() ([]models.ManualPaymentMethod, error) {
	var methods []models.ManualPaymentMethod
	if err := s.db.Where("active = ?", true).Find(&methods).Error; err != nil {
		return nil, err
	}
	return methods, nil
}

func (s *PurchaseService) buildResult(purchase *models.Purchase) (*CreatePurchaseResult, error) {
	result := &CreatePurchaseResult{Purchase: purchase}
	if purchase.PaymentType == PaymentTypeManual {
		methods, err := s.activeManualMethods()
		if err != nil {
			return nil, err
		}
		result.ManualInstructions = methods
		return result, nil
	}

	result.CheckoutURL = purchase.PaymentCheckoutURL
	result.PayCode = purchase.PaymentCode
	if purchase.PaymentReference != nil {
		result.Reference = *purchase.PaymentReference
	}
	return result, nil
}

func snapshotFromTransaction(tr *GatewayTransaction) Snapshot {
	total := tr.TotalAmount
	return Snapshot{
		Reference:   tr.Reference,
		Status:      tr.Status,
		TotalAmount: &total,
		CheckoutURL: tr.CheckoutURL,
		PayCode:     tr.PayCode,
		Note:        tr.Note,
		PaidAt:      tr.PaidAt,
		ExpiredAt:   tr.ExpiredAt,
		Raw:         tr.Raw,
	}
}

// newTransactionID menghasilkan id internal yang unik per siklus attempt.
func newTransactionID(photoID uint) string {
	return fmt.Sprintf("TRX-%d-%s", photoID, strings.ToUpper(uuid.New().String()[:8]))
}

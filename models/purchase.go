package models

import (
	"time"

	"gorm.io/datatypes"
)

// Purchase merekam satu siklus pembelian foto oleh satu buyer.
//
// Pasangan (buyer_id, photo_id) unik: retry memakai ulang baris yang sama
// dengan transaction_id baru, bukan membuat baris baru. Baris yang gagal
// atau kedaluwarsa tidak pernah dihapus.
type Purchase struct {
	ID      uint  `gorm:"primaryKey" json:"id"`
	BuyerID uint  `gorm:"not null;uniqueIndex:idx_buyer_photo" json:"buyer_id"`
	Buyer   User  `gorm:"foreignKey:BuyerID" json:"-"`
	PhotoID uint  `gorm:"not null;uniqueIndex:idx_buyer_photo" json:"photo_id"`
	Photo   Photo `gorm:"foreignKey:PhotoID" json:"photo,omitempty"`

	Amount      float64  `gorm:"type:decimal(12,2);not null" json:"amount"`
	TotalAmount *float64 `gorm:"type:decimal(12,2)" json:"total_amount,omitempty"`

	// PaymentType: manual | automatic. PaymentMethod: kode channel gateway
	// (BRIVA, QRIS, dll) atau sentinel "manual_transfer".
	PaymentType   string `gorm:"type:varchar(20);not null" json:"payment_type"`
	PaymentMethod string `gorm:"type:varchar(40);not null" json:"payment_method"`
	PaymentStatus string `gorm:"type:varchar(20);not null;default:'pending';index" json:"payment_status"`

	// TransactionID internal, selalu ada dan diganti setiap siklus attempt baru.
	// PaymentReference referensi gateway, hanya ada untuk pembayaran automatic.
	TransactionID      string  `gorm:"type:varchar(64);unique;not null" json:"transaction_id"`
	PaymentReference   *string `gorm:"type:varchar(64);index" json:"payment_reference,omitempty"`
	PaymentCheckoutURL string  `gorm:"type:varchar(512)" json:"payment_checkout_url,omitempty"`
	PaymentCode        string  `gorm:"type:varchar(64)" json:"payment_code,omitempty"`
	PaymentNote        string  `gorm:"type:text" json:"payment_note,omitempty"`

	// Khusus pembayaran manual.
	PaymentProofURL       string     `gorm:"type:varchar(512)" json:"payment_proof_url,omitempty"`
	ManualPaymentMethodID *uint      `json:"manual_payment_method_id,omitempty"`
	VerifiedBy            *uint      `json:"verified_by,omitempty"`
	VerifiedAt            *time.Time `json:"verified_at,omitempty"`

	// StatusVersion naik setiap snapshot rekonsiliasi diterima; snapshot
	// dengan versi lebih kecil ditolak agar status tidak mundur.
	StatusVersion uint `gorm:"not null;default:0" json:"status_version"`

	GatewayPayload datatypes.JSON `json:"-"`

	PurchasedAt time.Time  `gorm:"not null" json:"purchased_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

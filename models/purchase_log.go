package models

import "time"

// PurchaseLog adalah jejak audit append-only untuk setiap kejadian pada
// siklus pembelian. PurchaseID nullable: kegagalan sebelum baris purchase
// terbentuk tetap tercatat.
type PurchaseLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PurchaseID *uint     `gorm:"index" json:"purchase_id,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null;index" json:"action"`
	Note       string    `gorm:"type:text" json:"note"`
	CreatedAt  time.Time `json:"created_at"`
}

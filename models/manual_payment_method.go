package models

import "time"

// ManualPaymentMethod adalah rekening tujuan transfer manual.
type ManualPaymentMethod struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BankName      string    `gorm:"type:varchar(100);not null" json:"bank_name"`
	AccountNumber string    `gorm:"type:varchar(50);not null" json:"account_number"`
	AccountHolder string    `gorm:"type:varchar(255);not null" json:"account_holder"`
	Instructions  string    `gorm:"type:text" json:"instructions"`
	Active        bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

package models

import "time"

// Photo adalah satu foto digital yang dijual satuan. Sold hanya boleh
// diubah oleh proses rekonsiliasi gateway dan verifikasi manual admin,
// bukan oleh controller katalog.
type Photo struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	EventID      uint      `gorm:"not null;index" json:"event_id"`
	Event        Event     `gorm:"foreignKey:EventID" json:"-"`
	Title        string    `gorm:"type:varchar(255);not null" json:"title"`
	Price        float64   `gorm:"type:decimal(12,2);not null" json:"price"`
	Sold         bool      `gorm:"not null;default:false" json:"sold"`
	WatermarkURL string    `gorm:"type:varchar(512)" json:"watermark_url"`
	DisplayURL   string    `gorm:"type:varchar(512)" json:"display_url"`
	OriginalURL  string    `gorm:"type:varchar(512)" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

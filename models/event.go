package models

import "time"

// Event adalah sesi pemotretan (lomba lari, wisuda, dsb) yang menaungi
// kumpulan foto berbayar.
type Event struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"type:varchar(255);not null" json:"title"`
	Slug         string     `gorm:"type:varchar(255);unique;not null" json:"slug"`
	Description  string     `gorm:"type:text" json:"description"`
	Location     string     `gorm:"type:varchar(255)" json:"location"`
	EventDate    *time.Time `json:"event_date,omitempty"`
	Photographer string     `gorm:"type:varchar(255)" json:"photographer"`
	CoverURL     string     `gorm:"type:varchar(512)" json:"cover_url"`
	Photos       []Photo    `gorm:"foreignKey:EventID" json:"photos,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

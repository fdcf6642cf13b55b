package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// AppConfig menampung konfigurasi aplikasi yang dibaca sekali saat startup.
// Kredensial gateway tidak pernah diubah saat runtime; service menerima
// struct ini lewat constructor.
type AppConfig struct {
	Port                 string
	MinimumGatewayAmount float64
	ManualPaymentExpiry  time.Duration
}

func LoadAppConfig() AppConfig {
	cfg := AppConfig{
		Port:                 os.Getenv("PORT"),
		MinimumGatewayAmount: 1000,
		ManualPaymentExpiry:  24 * time.Hour,
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if v := os.Getenv("MINIMUM_GATEWAY_AMOUNT"); v != "" {
		if amount, err := strconv.ParseFloat(v, 64); err == nil && amount > 0 {
			cfg.MinimumGatewayAmount = amount
		}
	}
	return cfg
}

// SMTPConfig untuk pengiriman email invoice/notifikasi.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func LoadSMTPConfig() SMTPConfig {
	port := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}
	return SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
}

// InitDB membuka koneksi MySQL dari environment.
func InitDB() (*gorm.DB, error) {
	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			getEnv("DB_USER", "root"),
			os.Getenv("DB_PASSWORD"),
			getEnv("DB_HOST", "127.0.0.1"),
			getEnv("DB_PORT", "3306"),
			getEnv("DB_NAME", "photo_market"),
		)
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

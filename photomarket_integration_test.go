package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/config"
	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/router"
	"github.com/andikarw/photo-market/services"
	"github.com/andikarw/photo-market/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEndToEndManualPurchase menguji flow utama:
// 0. Seed admin, event, dan foto
// 1. Register buyer -> login -> token
// 2. Browse katalog
// 3. Buat pembelian manual_transfer
// 4. Upload bukti transfer
// 5. Admin lihat antrian pending-manual lalu approve
// 6. Purchase jadi paid, foto jadi sold
func TestEndToEndManualPurchase(t *testing.T) {
	db := setupIntegrationDB()
	r := setupIntegrationRouter(db)

	// 1. Register + login buyer
	w := doJSON(r, http.MethodPost, "/register", map[string]string{
		"name":     "Budi Buyer",
		"email":    "budi@example.com",
		"password": "rahasia-sekali",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)

	buyerToken := login(t, r, "budi@example.com", "rahasia-sekali")
	adminToken := login(t, r, "admin@example.com", "secret123")

	// 2. Browse katalog
	w = doJSON(r, http.MethodGet, "/events/1/photos", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	// 3. Buat pembelian manual
	w = doJSON(r, http.MethodPost, "/purchases", map[string]interface{}{
		"photo_id":       1,
		"payment_method": "manual_transfer",
	}, buyerToken)
	assert.Equal(t, http.StatusCreated, w.Code)

	var createResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &createResp))
	data := createResp["data"].(map[string]interface{})
	purchase := data["purchase"].(map[string]interface{})
	purchaseID := int(purchase["id"].(float64))
	transactionID := purchase["transaction_id"].(string)
	assert.Equal(t, "pending", purchase["payment_status"])
	assert.NotEmpty(t, data["manual_instructions"])

	// Request ulang dengan metode yang sama bersifat idempoten.
	w = doJSON(r, http.MethodPost, "/purchases", map[string]interface{}{
		"photo_id":       1,
		"payment_method": "manual_transfer",
	}, buyerToken)
	assert.Equal(t, http.StatusCreated, w.Code)
	var repeatResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &repeatResp))
	repeat := repeatResp["data"].(map[string]interface{})["purchase"].(map[string]interface{})
	assert.Equal(t, purchase["transaction_id"], repeat["transaction_id"])

	// 4. Upload bukti transfer
	uploadProof(t, r, transactionID, buyerToken)

	var withProof models.Purchase
	db.Where("transaction_id = ?", transactionID).First(&withProof)
	assert.NotEmpty(t, withProof.PaymentProofURL)

	// 5. Admin lihat antrian lalu approve
	w = doJSON(r, http.MethodGet, "/admin/purchases/pending-manual", nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodPost, fmt.Sprintf("/admin/purchases/%d/approve", purchaseID), nil, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)

	// 6. Purchase paid, foto sold
	var final models.Purchase
	db.First(&final, purchaseID)
	assert.Equal(t, "paid", final.PaymentStatus)

	var photo models.Photo
	db.First(&photo, 1)
	assert.True(t, photo.Sold)

	// Buyer kedua ditolak.
	w = doJSON(r, http.MethodPost, "/register", map[string]string{
		"name":     "Ani",
		"email":    "ani@example.com",
		"password": "rahasia-lain",
	}, "")
	assert.Equal(t, http.StatusCreated, w.Code)
	aniToken := login(t, r, "ani@example.com", "rahasia-lain")

	w = doJSON(r, http.MethodPost, "/purchases", map[string]interface{}{
		"photo_id":       1,
		"payment_method": "manual_transfer",
	}, aniToken)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func setupIntegrationDB() *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open in-memory sqlite: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Photo{},
		&models.Purchase{},
		&models.ManualPaymentMethod{},
		&models.PurchaseLog{},
	)
	if err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	hashed, _ := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	db.Create(&models.User{
		Name:     "Test Admin",
		Email:    "admin@example.com",
		Password: string(hashed),
		Role:     "admin",
	})

	eventDate := time.Now().AddDate(0, -1, 0)
	db.Create(&models.Event{Title: "Marathon Jakarta", Slug: "marathon-jakarta", EventDate: &eventDate})
	db.Create(&models.Photo{EventID: 1, Title: "Finish Line", Price: 15000})
	db.Create(&models.ManualPaymentMethod{
		BankName:      "BCA",
		AccountNumber: "1234567890",
		AccountHolder: "PT Photo Market",
		Active:        true,
	})

	return db
}

func setupIntegrationRouter(db *gorm.DB) *gin.Engine {
	gateway := services.NewTripayService(services.TripayConfig{})
	notifier := services.NewNotificationService(config.SMTPConfig{})
	cfg := config.AppConfig{MinimumGatewayAmount: 1000, ManualPaymentExpiry: 24 * time.Hour}
	purchaseService := services.NewPurchaseService(db, gateway, notifier, cfg)
	verificationService := services.NewVerificationService(db, notifier)
	return router.SetupRouter(db, gateway, purchaseService, verificationService)
}

func uploadProof(t *testing.T, r *gin.Engine, transactionID, token string) {
	t.Helper()
	t.Cleanup(func() { os.RemoveAll("public") })

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("proof", "bukti.jpg")
	assert.NoError(t, err)
	fw.Write([]byte("fake-image-bytes"))
	mw.WriteField("manual_payment_method_id", "1")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/purchases/%s/proof", transactionID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func login(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp["data"].(map[string]interface{})["token"].(string)
}

func doJSON(r *gin.Engine, method, url string, payload interface{}, token string) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewBuffer(b)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, url, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

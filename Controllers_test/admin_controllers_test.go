package Controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/andikarw/photo-market/config"
	"github.com/andikarw/photo-market/controllers"
	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/services"
	"github.com/andikarw/photo-market/utils"
)

func TestApproveAndRejectManualPurchase(t *testing.T) {
	utils.InitLogger()
	db := setupPurchaseTestDB(t)

	// Dua purchase manual pending, satu untuk approve, satu untuk reject.
	now := time.Now()
	db.Create(&models.Purchase{
		BuyerID: 1, PhotoID: 1, Amount: 15000,
		PaymentType: "manual", PaymentMethod: "manual_transfer",
		PaymentStatus: "pending", TransactionID: "TRX-1-APPROVE1",
		PurchasedAt: now,
	})
	db.Create(&models.User{Name: "Ani", Email: "ani@example.com", Password: "x", Role: "buyer"})
	db.Create(&models.Purchase{
		BuyerID: 2, PhotoID: 2, Amount: 20000,
		PaymentType: "manual", PaymentMethod: "manual_transfer",
		PaymentStatus: "pending", TransactionID: "TRX-2-REJECT01",
		PurchasedAt: now,
	})

	gin.SetMode(gin.TestMode)
	verification := services.NewVerificationService(db, services.NewNotificationService(config.SMTPConfig{}))
	ctrl := controllers.NewAdminController(db, verification)

	router := gin.New()
	admin := router.Group("/admin", asUser(99))
	admin.GET("/purchases/pending-manual", ctrl.GetPendingManualPurchases)
	admin.POST("/purchases/:purchase_id/approve", ctrl.ApprovePurchase)
	admin.POST("/purchases/:purchase_id/reject", ctrl.RejectPurchase)
	admin.GET("/purchase-logs", ctrl.GetPurchaseLogs)

	// Antrian berisi dua purchase.
	req := httptest.NewRequest(http.MethodGet, "/admin/purchases/pending-manual", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var listResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	assert.Len(t, listResp["data"].([]interface{}), 2)

	// Approve purchase pertama.
	w = postJSON(router, "/admin/purchases/1/approve", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var approved models.Purchase
	db.First(&approved, 1)
	assert.Equal(t, "paid", approved.PaymentStatus)
	assert.Equal(t, uint(99), *approved.VerifiedBy)

	var photo models.Photo
	db.First(&photo, 1)
	assert.True(t, photo.Sold)

	// Reject purchase kedua.
	w = postJSON(router, "/admin/purchases/2/reject", map[string]string{"reason": "bukti tidak sesuai"})
	assert.Equal(t, http.StatusOK, w.Code)

	var rejected models.Purchase
	db.First(&rejected, 2)
	assert.Equal(t, "failed", rejected.PaymentStatus)

	// Approve kedua kali ditolak 409.
	w = postJSON(router, "/admin/purchases/1/approve", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Audit trail terisi.
	req = httptest.NewRequest(http.MethodGet, "/admin/purchase-logs", nil)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req)
	assert.Equal(t, http.StatusOK, w2.Code)
	var logsResp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w2.Body.Bytes(), &logsResp))
	assert.NotEmpty(t, logsResp["data"])
}

package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/services"
	"github.com/andikarw/photo-market/utils"
)

type PurchaseController struct {
	DB      *gorm.DB
	Service *services.PurchaseService
	Gateway *services.TripayService
}

func NewPurchaseController(db *gorm.DB, service *services.PurchaseService, gateway *services.TripayService) *PurchaseController {
	return &PurchaseController{DB: db, Service: service, Gateway: gateway}
}

// CreatePurchase adalah pintu masuk pembelian foto. Seluruh keputusan
// (reuse attempt lama, jalur automatic vs manual, fallback) ada di service;
// controller hanya menerjemahkan error domain ke status HTTP.
func (pc *PurchaseController) CreatePurchase(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	type request struct {
		PhotoID       uint   `json:"photo_id" binding:"required"`
		PaymentMethod string `json:"payment_method" binding:"required"`
	}
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var buyer models.User
	if err := pc.DB.First(&buyer, buyerID).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("buyer not found"))
		return
	}

	result, err := pc.Service.CreatePurchase(services.CreatePurchaseInput{
		BuyerID:       buyerID,
		PhotoID:       req.PhotoID,
		PaymentMethod: req.PaymentMethod,
		CustomerName:  buyer.Name,
		CustomerEmail: buyer.Email,
		CustomerPhone: buyer.Phone,
	})
	if err != nil {
		respondPurchaseError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Purchase created", result)
}

// GetMyPurchases mengembalikan seluruh pembelian milik buyer yang login.
func (pc *PurchaseController) GetMyPurchases(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var purchases []models.Purchase
	if err := pc.DB.Preload("Photo").Where("buyer_id = ?", buyerID).
		Order("updated_at DESC").Find(&purchases).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "My purchases", purchases)
}

// SyncPurchaseStatus menarik status gateway on-demand, dipakai tombol
// "cek status" di halaman pembayaran buyer.
func (pc *PurchaseController) SyncPurchaseStatus(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	transactionID := c.Param("transaction_id")
	if !pc.ownsPurchase(c, buyerID, transactionID) {
		return
	}

	purchase, err := pc.Service.SyncStatus(transactionID)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Purchase status", purchase)
}

// UploadPaymentProof menerima bukti transfer untuk pembelian manual.
func (pc *PurchaseController) UploadPaymentProof(c *gin.Context) {
	buyerID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	transactionID := c.Param("transaction_id")
	if !pc.ownsPurchase(c, buyerID, transactionID) {
		return
	}

	file, err := c.FormFile("proof")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("proof file is required"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" && ext != ".pdf" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("only jpg/jpeg/png/pdf files are allowed"))
		return
	}

	filename := fmt.Sprintf("proof_%s_%d%s", transactionID, time.Now().Unix(), ext)
	dst := filepath.Join("public", "uploads", "proofs", filename)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var methodID *uint
	if v := c.PostForm("manual_payment_method_id"); v != "" {
		var id uint
		if _, err := fmt.Sscanf(v, "%d", &id); err == nil {
			methodID = &id
		}
	}

	purchase, err := pc.Service.AttachProof(transactionID, "/uploads/proofs/"+filename, methodID)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment proof uploaded", purchase)
}

// GetPaymentChannels meneruskan daftar channel aktif dari gateway.
func (pc *PurchaseController) GetPaymentChannels(c *gin.Context) {
	channels, err := pc.Gateway.ListChannels()
	if err != nil {
		respondPurchaseError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Payment channels", channels)
}

// GetManualPaymentMethods mengembalikan rekening transfer manual yang aktif.
func (pc *PurchaseController) GetManualPaymentMethods(c *gin.Context) {
	var methods []models.ManualPaymentMethod
	if err := pc.DB.Where("active = ?", true).Find(&methods).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Manual payment methods", methods)
}

// ownsPurchase memastikan transaksi milik buyer yang login. Balasannya 404,
// bukan 403, supaya transaction_id orang lain tidak bisa ditebak.
func (pc *PurchaseController) ownsPurchase(c *gin.Context, buyerID uint, transactionID string) bool {
	var purchase models.Purchase
	err := pc.DB.Where("transaction_id = ? AND buyer_id = ?", transactionID, buyerID).
		First(&purchase).Error
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("purchase not found"))
		return false
	}
	return true
}

// respondPurchaseError memetakan error domain ke status HTTP.
func respondPurchaseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrPhotoNotFound),
		errors.Is(err, services.ErrReconciliationTargetMissing):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrAlreadySold),
		errors.Is(err, services.ErrAlreadyPurchased),
		errors.Is(err, services.ErrInvalidStateTransition):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrBelowMinimumAmount):
		utils.RespondError(c, http.StatusBadRequest, err)
	default:
		var ge *services.GatewayError
		if errors.As(err, &ge) {
			switch ge.Kind {
			case services.GatewayErrConfig:
				utils.RespondError(c, http.StatusInternalServerError, err)
			case services.GatewayErrConnectivity:
				utils.RespondError(c, http.StatusBadGateway, err)
			default:
				utils.RespondError(c, http.StatusBadGateway, err)
			}
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}

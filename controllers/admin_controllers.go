package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/services"
	"github.com/andikarw/photo-market/utils"
)

// AdminController melayani dashboard admin: antrian verifikasi transfer
// manual, audit log, dan pengelolaan rekening manual.
type AdminController struct {
	DB           *gorm.DB
	Verification *services.VerificationService
}

func NewAdminController(db *gorm.DB, verification *services.VerificationService) *AdminController {
	return &AdminController{DB: db, Verification: verification}
}

// GetPendingManualPurchases mengembalikan antrian transfer manual yang
// menunggu keputusan admin.
func (ac *AdminController) GetPendingManualPurchases(c *gin.Context) {
	var purchases []models.Purchase
	err := ac.DB.Preload("Photo").Preload("Buyer").
		Where("payment_type = ? AND payment_status = ?", "manual", "pending").
		Order("created_at ASC").Find(&purchases).Error
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Pending manual purchases", purchases)
}

func (ac *AdminController) GetAllPurchases(c *gin.Context) {
	var purchases []models.Purchase
	query := ac.DB.Preload("Photo").Preload("Buyer").Order("updated_at DESC")
	if status := c.Query("status"); status != "" {
		query = query.Where("payment_status = ?", status)
	}
	if err := query.Find(&purchases).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "All purchases", purchases)
}

// ApprovePurchase menyetujui transfer manual: purchase jadi paid, foto sold.
func (ac *AdminController) ApprovePurchase(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var purchaseID uint
	if err := bindPurchaseID(c, &purchaseID); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	purchase, err := ac.Verification.Approve(purchaseID, adminID)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Purchase approved", purchase)
}

// RejectPurchase menolak transfer manual dengan alasan opsional.
func (ac *AdminController) RejectPurchase(c *gin.Context) {
	adminID, ok := currentUserID(c)
	if !ok {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	var purchaseID uint
	if err := bindPurchaseID(c, &purchaseID); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	purchase, err := ac.Verification.Reject(purchaseID, adminID, body.Reason)
	if err != nil {
		respondPurchaseError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Purchase rejected", purchase)
}

// GetPurchaseLogs mengembalikan audit trail, bisa difilter per purchase.
func (ac *AdminController) GetPurchaseLogs(c *gin.Context) {
	var logs []models.PurchaseLog
	query := ac.DB.Order("created_at DESC").Limit(200)
	if purchaseID := c.Query("purchase_id"); purchaseID != "" {
		query = query.Where("purchase_id = ?", purchaseID)
	}
	if err := query.Find(&logs).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Purchase logs", logs)
}

type manualMethodRequest struct {
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountHolder string `json:"account_holder" binding:"required"`
	Instructions  string `json:"instructions"`
	Active        *bool  `json:"active"`
}

func (ac *AdminController) CreateManualPaymentMethod(c *gin.Context) {
	var req manualMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	method := models.ManualPaymentMethod{
		BankName:      req.BankName,
		AccountNumber: req.AccountNumber,
		AccountHolder: req.AccountHolder,
		Instructions:  req.Instructions,
		Active:        true,
	}
	if req.Active != nil {
		method.Active = *req.Active
	}
	if err := ac.DB.Create(&method).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Manual payment method created", method)
}

func (ac *AdminController) UpdateManualPaymentMethod(c *gin.Context) {
	var method models.ManualPaymentMethod
	if err := ac.DB.First(&method, c.Param("method_id")).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("manual payment method not found"))
		return
	}

	var req manualMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	method.BankName = req.BankName
	method.AccountNumber = req.AccountNumber
	method.AccountHolder = req.AccountHolder
	method.Instructions = req.Instructions
	if req.Active != nil {
		method.Active = *req.Active
	}
	if err := ac.DB.Save(&method).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Manual payment method updated", method)
}

func (ac *AdminController) DeleteManualPaymentMethod(c *gin.Context) {
	if err := ac.DB.Delete(&models.ManualPaymentMethod{}, c.Param("method_id")).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Manual payment method deleted", gin.H{"method_id": c.Param("method_id")})
}

func bindPurchaseID(c *gin.Context, out *uint) error {
	var uri struct {
		PurchaseID uint `uri:"purchase_id" binding:"required"`
	}
	if err := c.ShouldBindUri(&uri); err != nil {
		return errors.New("invalid purchase id")
	}
	*out = uri.PurchaseID
	return nil
}

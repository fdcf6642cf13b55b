package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/andikarw/photo-market/services"
	"github.com/andikarw/photo-market/utils"
)

// CallbackController menerima webhook status pembayaran dari gateway.
type CallbackController struct {
	Gateway    *services.TripayService
	Reconciler *services.ReconcileService
}

func NewCallbackController(gateway *services.TripayService, reconciler *services.ReconcileService) *CallbackController {
	return &CallbackController{Gateway: gateway, Reconciler: reconciler}
}

type callbackPayload struct {
	Reference   string  `json:"reference"`
	MerchantRef string  `json:"merchant_ref"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"total_amount"`
	PaymentCode string  `json:"pay_code"`
	Note        string  `json:"note"`
	PaidAt      int64   `json:"paid_at"`
	ExpiredAt   int64   `json:"expired_time"`
}

// HandlePaymentCallback memverifikasi signature HMAC dari raw body sebelum
// payload dipercaya, lalu menyerahkan snapshot ke reconciler. Endpoint ini
// publik; signature adalah satu-satunya autentikasinya.
func (cc *CallbackController) HandlePaymentCallback(c *gin.Context) {
	rawBody, err := c.GetRawData()
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("unable to read callback body"))
		return
	}

	signature := c.GetHeader("X-Callback-Signature")
	if !cc.Gateway.ValidateCallbackSignature(rawBody, signature) {
		utils.ErrorLogger.Printf("Callback with invalid signature from %s", c.ClientIP())
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid callback signature"))
		return
	}

	var payload callbackPayload
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid callback payload"))
		return
	}
	if payload.Reference == "" || payload.Status == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("reference and status are required"))
		return
	}

	snap := services.Snapshot{
		Reference: payload.Reference,
		Status:    payload.Status,
		PayCode:   payload.PaymentCode,
		Note:      payload.Note,
		PaidAt:    payload.PaidAt,
		ExpiredAt: payload.ExpiredAt,
		Raw:       rawBody,
	}
	if payload.TotalAmount > 0 {
		total := payload.TotalAmount
		snap.TotalAmount = &total
	}

	purchase, err := cc.Reconciler.ApplySnapshot(snap)
	if err != nil {
		if errors.Is(err, services.ErrReconciliationTargetMissing) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		respondPurchaseError(c, err)
		return
	}

	utils.InfoLogger.Printf("Callback for %s applied, status now %s", payload.Reference, purchase.PaymentStatus)
	utils.RespondJSON(c, http.StatusOK, "Callback processed", gin.H{"success": true})
}

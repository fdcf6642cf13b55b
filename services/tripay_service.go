package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// GatewayErrorKind mengklasifikasikan kegagalan gateway sehingga caller
// tidak perlu mencocokkan substring pesan error.
type GatewayErrorKind int

const (
	// GatewayErrConfig: kredensial/URL tidak lengkap. Fatal, tidak di-retry.
	GatewayErrConfig GatewayErrorKind = iota
	// GatewayErrConnectivity: timeout/jaringan/upstream 5xx. Recoverable,
	// memicu fallback ke pembayaran manual.
	GatewayErrConnectivity
	// GatewayErrRejected: gateway menolak request (nominal/signature tidak
	// valid). Fatal, diteruskan ke caller.
	GatewayErrRejected
)

type GatewayError struct {
	Kind    GatewayErrorKind
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *GatewayError) Unwrap() error { return e.Err }

// TripayConfig dibaca sekali saat startup dan di-inject ke service.
type TripayConfig struct {
	APIKey       string
	PrivateKey   string
	MerchantCode string
	BaseURL      string
	CallbackURL  string
	ReturnURL    string
}

func LoadTripayConfigFromEnv() TripayConfig {
	return TripayConfig{
		APIKey:       os.Getenv("TRIPAY_API_KEY"),
		PrivateKey:   os.Getenv("TRIPAY_PRIVATE_KEY"),
		MerchantCode: os.Getenv("TRIPAY_MERCHANT_CODE"),
		BaseURL:      os.Getenv("TRIPAY_BASE_URL"),
		CallbackURL:  os.Getenv("TRIPAY_CALLBACK_URL"),
		ReturnURL:    os.Getenv("TRIPAY_RETURN_URL"),
	}
}

// TripayService menangani seluruh komunikasi dengan payment gateway.
type TripayService struct {
	config     TripayConfig
	httpClient *http.Client
}

func NewTripayService(config TripayConfig) *TripayService {
	return &TripayService{
		config: config,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// ValidateConfig memastikan seluruh kredensial gateway tersedia.
func (ts *TripayService) ValidateConfig() error {
	missing := []string{}
	if ts.config.APIKey == "" {
		missing = append(missing, "TRIPAY_API_KEY")
	}
	if ts.config.PrivateKey == "" {
		missing = append(missing, "TRIPAY_PRIVATE_KEY")
	}
	if ts.config.MerchantCode == "" {
		missing = append(missing, "TRIPAY_MERCHANT_CODE")
	}
	if ts.config.BaseURL == "" {
		missing = append(missing, "TRIPAY_BASE_URL")
	}
	if ts.config.CallbackURL == "" {
		missing = append(missing, "TRIPAY_CALLBACK_URL")
	}
	if len(missing) > 0 {
		return &GatewayError{
			Kind:    GatewayErrConfig,
			Message: "gateway config incomplete: " + strings.Join(missing, ", "),
		}
	}
	return nil
}

// GatewayTransaction adalah hasil normalisasi response transaksi Tripay.
type GatewayTransaction struct {
	Reference   string
	MerchantRef string
	Method      string
	CheckoutURL string
	PayCode     string
	Note        string
	Amount      float64
	TotalAmount float64
	Status      string
	PaidAt      int64
	ExpiredAt   int64
	Raw         []byte
}

type TransactionItem struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type CustomerDetail struct {
	Name  string
	Email string
	Phone string
}

type tripayTransactionData struct {
	Reference   string  `json:"reference"`
	MerchantRef string  `json:"merchant_ref"`
	Method      string  `json:"payment_method"`
	CheckoutURL string  `json:"checkout_url"`
	PayCode     string  `json:"pay_code"`
	Note        string  `json:"note"`
	Amount      float64 `json:"amount"`
	TotalAmount float64 `json:"amount_received"`
	FeeCustomer float64 `json:"fee_customer"`
	Status      string  `json:"status"`
	PaidAt      int64   `json:"paid_at"`
	ExpiredAt   int64   `json:"expired_time"`
}

type tripayEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// CreateTransaction membuat transaksi baru di gateway.
func (ts *TripayService) CreateTransaction(method, merchantRef string, amount float64, customer CustomerDetail, items []TransactionItem, expirySeconds int64) (*GatewayTransaction, error) {
	if err := ts.ValidateConfig(); err != nil {
		return nil, err
	}

	payload := map[string]interface{}{
		"method":         method,
		"merchant_ref":   merchantRef,
		"amount":         int64(amount),
		"customer_name":  customer.Name,
		"customer_email": customer.Email,
		"customer_phone": customer.Phone,
		"order_items":    items,
		"callback_url":   ts.config.CallbackURL,
		"return_url":     ts.config.ReturnURL,
		"expired_time":   time.Now().Unix() + expirySeconds,
		"signature":      ts.requestSignature(merchantRef, amount),
	}

	body, err := ts.doRequest(http.MethodPost, "/transaction/create", payload)
	if err != nil {
		return nil, err
	}
	return parseTransaction(body)
}

// GetTransactionDetail mengambil status transaksi terkini dari gateway.
func (ts *TripayService) GetTransactionDetail(reference string) (*GatewayTransaction, error) {
	if err := ts.ValidateConfig(); err != nil {
		return nil, err
	}

	path := "/transaction/detail?reference=" + url.QueryEscape(reference)
	body, err := ts.doRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return parseTransaction(body)
}

// Channel adalah satu metode pembayaran yang tersedia di gateway.
type Channel struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	Group         string  `json:"group"`
	FeeFlat       float64 `json:"total_fee_flat"`
	FeePercent    float64 `json:"total_fee_percent"`
	MinimumAmount float64 `json:"minimum_amount"`
	Active        bool    `json:"active"`
}

type channelData struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	Group      string  `json:"group"`
	Active     bool    `json:"active"`
	MinAmount  float64 `json:"minimum_amount"`
	TotalFee   feeData `json:"total_fee"`
	IconURL    string  `json:"icon_url"`
	FeeFlatOld float64 `json:"fee_flat"`
}

type feeData struct {
	Flat    float64 `json:"flat"`
	Percent float64 `json:"percent,string"`
}

// ListChannels mengambil daftar channel pembayaran aktif.
func (ts *TripayService) ListChannels() ([]Channel, error) {
	if err := ts.ValidateConfig(); err != nil {
		return nil, err
	}

	body, err := ts.doRequest(http.MethodGet, "/merchant/payment-channel", nil)
	if err != nil {
		return nil, err
	}

	var env tripayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &GatewayError{Kind: GatewayErrRejected, Message: "error unmarshaling channel list", Err: err}
	}
	if !env.Success {
		return nil, &GatewayError{Kind: GatewayErrRejected, Message: "gateway rejected channel list: " + env.Message}
	}

	var raw []channelData
	if err := json.Unmarshal(env.Data, &raw); err != nil {
		return nil, &GatewayError{Kind: GatewayErrRejected, Message: "error unmarshaling channel data", Err: err}
	}

	channels := make([]Channel, 0, len(raw))
	for _, ch := range raw {
		if !ch.Active {
			continue
		}
		channels = append(channels, Channel{
			Code:          ch.Code,
			Name:          ch.Name,
			Group:         ch.Group,
			FeeFlat:       ch.TotalFee.Flat,
			FeePercent:    ch.TotalFee.Percent,
			MinimumAmount: ch.MinAmount,
			Active:        ch.Active,
		})
	}
	return channels, nil
}

// ValidateCallbackSignature memverifikasi HMAC-SHA256 dari raw body webhook.
func (ts *TripayService) ValidateCallbackSignature(rawBody []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(ts.config.PrivateKey))
	mac.Write(rawBody)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// requestSignature = HMAC-SHA256(merchantCode + merchantRef + amount).
func (ts *TripayService) requestSignature(merchantRef string, amount float64) string {
	mac := hmac.New(sha256.New, []byte(ts.config.PrivateKey))
	fmt.Fprintf(mac, "%s%s%.0f", ts.config.MerchantCode, merchantRef, amount)
	return hex.EncodeToString(mac.Sum(nil))
}

func (ts *TripayService) doRequest(method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, &GatewayError{Kind: GatewayErrRejected, Message: "error marshaling request", Err: err}
		}
		reqBody = strings.NewReader(string(jsonData))
	}

	req, err := http.NewRequest(method, ts.config.BaseURL+path, reqBody)
	if err != nil {
		return nil, &GatewayError{Kind: GatewayErrRejected, Message: "error creating request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+ts.config.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		// Timeout dan error jaringan masuk sini.
		return nil, &GatewayError{Kind: GatewayErrConnectivity, Message: "gateway unreachable", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Kind: GatewayErrConnectivity, Message: "error reading gateway response", Err: err}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &GatewayError{
			Kind:    GatewayErrConnectivity,
			Message: fmt.Sprintf("gateway upstream error (status %d)", resp.StatusCode),
		}
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, &GatewayError{
			Kind:    GatewayErrRejected,
			Message: fmt.Sprintf("gateway error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}
	return body, nil
}

func parseTransaction(body []byte) (*GatewayTransaction, error) {
	var env tripayEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &GatewayError{Kind: GatewayErrRejected, Message: "error unmarshaling response", Err: err}
	}
	if !env.Success {
		return nil, &GatewayError{Kind: GatewayErrRejected, Message: "gateway rejected transaction: " + env.Message}
	}

	var data tripayTransactionData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &GatewayError{Kind: GatewayErrRejected, Message: "error unmarshaling transaction data", Err: err}
	}

	total := data.Amount + data.FeeCustomer
	return &GatewayTransaction{
		Reference:   data.Reference,
		MerchantRef: data.MerchantRef,
		Method:      data.Method,
		CheckoutURL: data.CheckoutURL,
		PayCode:     data.PayCode,
		Note:        data.Note,
		Amount:      data.Amount,
		TotalAmount: total,
		Status:      data.Status,
		PaidAt:      data.PaidAt,
		ExpiredAt:   data.ExpiredAt,
		Raw:         body,
	}, nil
}

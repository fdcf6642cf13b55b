package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testTripayConfig(baseURL string) TripayConfig {
	return TripayConfig{
		APIKey:       "test-api-key",
		PrivateKey:   "test-private-key",
		MerchantCode: "T0001",
		BaseURL:      baseURL,
		CallbackURL:  "https://photomarket.test/payments/callback",
		ReturnURL:    "https://photomarket.test/return",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  TripayConfig
		wantErr bool
	}{
		{"complete", testTripayConfig("https://tripay.test"), false},
		{"missing api key", TripayConfig{PrivateKey: "x", MerchantCode: "x", BaseURL: "x", CallbackURL: "x"}, true},
		{"missing everything", TripayConfig{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewTripayService(tt.config).ValidateConfig()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var ge *GatewayError
			assert.True(t, errors.As(err, &ge))
			assert.Equal(t, GatewayErrConfig, ge.Kind)
		})
	}
}

func TestMapTransactionStatus(t *testing.T) {
	tests := []struct {
		gateway string
		want    string
	}{
		{"UNPAID", PaymentStatusPending},
		{"PAID", PaymentStatusPaid},
		{"EXPIRED", PaymentStatusExpired},
		{"FAILED", PaymentStatusFailed},
		{"REFUND", PaymentStatusFailed},
		{"SOMETHING_NEW", PaymentStatusUnknown},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapTransactionStatus(tt.gateway), tt.gateway)
	}
}

func TestCreateTransactionSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
		assert.Equal(t, "/transaction/create", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"success":true,"data":{
			"reference":"DEV-REF-001","merchant_ref":"TRX-1-ABCD1234",
			"payment_method":"BRIVA","checkout_url":"https://tripay.test/checkout/DEV-REF-001",
			"pay_code":"123456789","amount":15000,"fee_customer":1500,
			"status":"UNPAID","expired_time":1900000000}}`))
	}))
	defer server.Close()

	ts := NewTripayService(testTripayConfig(server.URL))
	tr, err := ts.CreateTransaction("BRIVA", "TRX-1-ABCD1234", 15000, CustomerDetail{Name: "Budi"}, nil, 86400)
	assert.NoError(t, err)
	assert.Equal(t, "DEV-REF-001", tr.Reference)
	assert.Equal(t, "UNPAID", tr.Status)
	assert.Equal(t, float64(16500), tr.TotalAmount)
	assert.Equal(t, int64(1900000000), tr.ExpiredAt)
	assert.NotEmpty(t, tr.Raw)
}

func TestGatewayErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantKind GatewayErrorKind
	}{
		{
			name: "upstream 500 is connectivity",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantKind: GatewayErrConnectivity,
		},
		{
			name: "bad gateway 502 is connectivity",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantKind: GatewayErrConnectivity,
		},
		{
			name: "4xx is rejected",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"success":false,"message":"invalid signature"}`))
			},
			wantKind: GatewayErrRejected,
		},
		{
			name: "business failure is rejected",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"success":false,"message":"minimum amount is 1000"}`))
			},
			wantKind: GatewayErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			ts := NewTripayService(testTripayConfig(server.URL))
			_, err := ts.CreateTransaction("BRIVA", "TRX-1-X", 15000, CustomerDetail{}, nil, 86400)
			var ge *GatewayError
			assert.True(t, errors.As(err, &ge), "expected GatewayError, got %v", err)
			assert.Equal(t, tt.wantKind, ge.Kind)
		})
	}
}

func TestGatewayUnreachableIsConnectivity(t *testing.T) {
	// Server langsung ditutup: request berikutnya gagal di level jaringan.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	ts := NewTripayService(testTripayConfig(server.URL))
	_, err := ts.GetTransactionDetail("DEV-REF-001")
	assert.True(t, IsGatewayConnectivity(err), "expected connectivity error, got %v", err)
}

func TestListChannelsFiltersInactive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/merchant/payment-channel", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":[
			{"code":"BRIVA","name":"BRI Virtual Account","group":"Virtual Account","active":true,
			 "minimum_amount":10000,"total_fee":{"flat":4000,"percent":"0"}},
			{"code":"OVO","name":"OVO","group":"E-Wallet","active":false,
			 "minimum_amount":1000,"total_fee":{"flat":0,"percent":"3"}}]}`))
	}))
	defer server.Close()

	ts := NewTripayService(testTripayConfig(server.URL))
	channels, err := ts.ListChannels()
	assert.NoError(t, err)
	assert.Len(t, channels, 1)
	assert.Equal(t, "BRIVA", channels[0].Code)
	assert.Equal(t, float64(4000), channels[0].FeeFlat)
}

func TestValidateCallbackSignature(t *testing.T) {
	ts := NewTripayService(testTripayConfig("https://tripay.test"))
	body := []byte(`{"reference":"DEV-REF-001","status":"PAID"}`)

	mac := hmac.New(sha256.New, []byte("test-private-key"))
	mac.Write(body)
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, ts.ValidateCallbackSignature(body, valid))
	assert.False(t, ts.ValidateCallbackSignature(body, "deadbeef"))
	assert.False(t, ts.ValidateCallbackSignature([]byte(`tampered`), valid))
}

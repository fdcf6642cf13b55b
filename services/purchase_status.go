package services

// Status pembayaran internal
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusExpired = "expired"
	PaymentStatusFailed  = "failed"
	PaymentStatusUnknown = "unknown"
)

// Tipe pembayaran
const (
	PaymentTypeManual    = "manual"
	PaymentTypeAutomatic = "automatic"
)

// ManualTransferMethod adalah sentinel payment_method untuk transfer bank
// manual di luar gateway.
const ManualTransferMethod = "manual_transfer"

// GatewayStatusRefund dipakai guard rekonsiliasi: refund adalah satu-satunya
// jalur sah keluar dari status paid.
const GatewayStatusRefund = "REFUND"

// MapTransactionStatus memetakan kosakata status gateway ke status internal.
func MapTransactionStatus(status string) string {
	switch status {
	case "UNPAID":
		return PaymentStatusPending
	case "PAID":
		return PaymentStatusPaid
	case "EXPIRED":
		return PaymentStatusExpired
	case "FAILED", "REFUND":
		return PaymentStatusFailed
	default:
		return PaymentStatusUnknown
	}
}

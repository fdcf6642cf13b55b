package services

import (
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/andikarw/photo-market/config"
	"github.com/andikarw/photo-market/models"
	"github.com/andikarw/photo-market/utils"
)

// NotificationService mengirim email ke buyer secara fire-and-forget:
// kegagalan kirim hanya dicatat di log dan tidak pernah menggagalkan
// transaksi pembelian.
type NotificationService struct {
	cfg config.SMTPConfig
}

func NewNotificationService(cfg config.SMTPConfig) *NotificationService {
	return &NotificationService{cfg: cfg}
}

// SendAutomaticInvoice mengirim tautan checkout gateway ke buyer.
func (s *NotificationService) SendAutomaticInvoice(email, name string, purchase *models.Purchase) {
	body := fmt.Sprintf(
		"Halo %s,<br><br>Tagihan pembelian foto #%d sebesar <b>%s</b> sudah dibuat.<br>"+
			"Selesaikan pembayaran melalui: <a href=%q>%s</a>",
		name, purchase.PhotoID, utils.FormatRupiah(purchase.Amount),
		purchase.PaymentCheckoutURL, purchase.PaymentCheckoutURL)
	if purchase.PaymentCode != "" {
		body += fmt.Sprintf("<br>Kode bayar: <b>%s</b>", purchase.PaymentCode)
	}
	s.send(email, fmt.Sprintf("Invoice Pembelian Foto %s", purchase.TransactionID), body)
}

// SendManualInvoice mengirim instruksi transfer manual.
func (s *NotificationService) SendManualInvoice(email, name string, purchase *models.Purchase, methods []models.ManualPaymentMethod) {
	body := fmt.Sprintf(
		"Halo %s,<br><br>Pembelian foto #%d sebesar <b>%s</b> menunggu transfer manual.<br>"+
			"Transfer ke salah satu rekening berikut lalu unggah bukti pembayaran:<br>",
		name, purchase.PhotoID, utils.FormatRupiah(purchase.Amount))
	for _, m := range methods {
		body += fmt.Sprintf("- %s %s a.n. %s<br>", m.BankName, m.AccountNumber, m.AccountHolder)
	}
	if purchase.ExpiresAt != nil {
		body += fmt.Sprintf("<br>Batas pembayaran: %s", purchase.ExpiresAt.Format("02 Jan 2006 15:04"))
	}
	s.send(email, fmt.Sprintf("Instruksi Pembayaran %s", purchase.TransactionID), body)
}

// SendPaymentSuccess dikirim setelah rekonsiliasi menandai purchase paid.
func (s *NotificationService) SendPaymentSuccess(email, name string, purchase *models.Purchase) {
	body := fmt.Sprintf(
		"Halo %s,<br><br>Pembayaran %s sebesar <b>%s</b> sudah kami terima. "+
			"Foto #%d kini bisa diunduh dari halaman pembelianmu.",
		name, purchase.TransactionID, utils.FormatRupiah(purchase.Amount), purchase.PhotoID)
	s.send(email, "Pembayaran Berhasil", body)
}

// SendPaymentApproved dikirim setelah admin memverifikasi transfer manual.
func (s *NotificationService) SendPaymentApproved(email, name string, purchase *models.Purchase) {
	body := fmt.Sprintf(
		"Halo %s,<br><br>Bukti transfer untuk pembelian %s sudah diverifikasi admin. "+
			"Foto #%d kini bisa diunduh dari halaman pembelianmu.",
		name, purchase.TransactionID, purchase.PhotoID)
	s.send(email, "Pembayaran Terverifikasi", body)
}

func (s *NotificationService) send(to, subject, htmlBody string) {
	if s.cfg.Host == "" {
		utils.InfoLogger.Debugf("SMTP not configured, skipping email %q to %s", subject, to)
		return
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	go func() {
		d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
		if err := d.DialAndSend(m); err != nil {
			utils.ErrorLogger.Printf("Failed to send email %q to %s: %v", subject, to, err)
			return
		}
		utils.InfoLogger.Printf("Sent email %q to %s", subject, to)
	}()
}

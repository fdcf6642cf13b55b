package utils

import (
	"fmt"
	"strings"
)

// FormatRupiah memformat nominal ke format "Rp 1.500.000" untuk email
// invoice dan catatan pembayaran manual.
func FormatRupiah(amount float64) string {
	integerPart := fmt.Sprintf("%.0f", amount)

	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	return "Rp " + strings.Join(groups, ".")
}

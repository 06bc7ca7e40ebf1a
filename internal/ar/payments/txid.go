package payments

import (
	"time"

	"github.com/google/uuid"
)

const txAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewTransactionID returns TX-YYYYMMDD-XXXX with four random upper-case
// alphanumerics taken from a version 4 UUID.
func NewTransactionID(now time.Time) string {
	id := uuid.New()
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = txAlphabet[int(id[i])%len(txAlphabet)]
	}
	return "TX-" + now.Format("20060102") + "-" + string(suffix)
}

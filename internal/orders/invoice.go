package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewInvoice bikin label invoice unik, contoh: INV/20260901/3F2A8C1D.
func NewInvoice(now time.Time) string {
	short := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("INV/%s/%s", now.Format("20060102"), short)
}

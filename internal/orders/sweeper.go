package orders

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type ExpiredOrder struct {
	ID      string
	Invoice string
}

type SweepStore interface {
	ListExpired(ctx context.Context, now time.Time) ([]ExpiredOrder, error)
	CancelExpired(ctx context.Context, orderID string) error
}

type SweepFailure struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

// SweepReport: hasil satu sweep. Failed diisi supaya kegagalan per order
// tetap keliatan, bukan cuma dihitung.
type SweepReport struct {
	Cancelled []string       `json:"cancelled"`
	Failed    []SweepFailure `json:"failed,omitempty"`
}

type Sweeper struct {
	Store SweepStore
	Log   zerolog.Logger
}

// Sweep batalin semua order PENDING tanpa payment proof yang expire_payment
// sudah lewat. Tiap order satu unit atomik sendiri; satu gagal dicatat di
// report lalu lanjut ke order berikutnya.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	expired, err := s.Store.ListExpired(ctx, now)
	if err != nil {
		return SweepReport{}, err
	}

	var report SweepReport
	for _, o := range expired {
		if err := s.Store.CancelExpired(ctx, o.ID); err != nil {
			s.Log.Warn().Err(err).Str("order_id", o.ID).Str("invoice", o.Invoice).
				Msg("expiry cancel failed, skipping")
			report.Failed = append(report.Failed, SweepFailure{OrderID: o.ID, Reason: err.Error()})
			continue
		}
		report.Cancelled = append(report.Cancelled, o.ID)
	}
	return report, nil
}

func (r *Repo) ListExpired(ctx context.Context, now time.Time) ([]ExpiredOrder, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, invoice FROM orders
		WHERE payment_status=$1 AND payment_proof IS NULL AND expire_payment < $2
		ORDER BY expire_payment`, StatusPending, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExpiredOrder
	for rows.Next() {
		var o ExpiredOrder
		if err := rows.Scan(&o.ID, &o.Invoice); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

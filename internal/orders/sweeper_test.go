package orders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeSweepStore struct {
	expired  []ExpiredOrder
	failWith map[string]error
	canceled []string
}

func (f *fakeSweepStore) ListExpired(ctx context.Context, now time.Time) ([]ExpiredOrder, error) {
	return f.expired, nil
}

func (f *fakeSweepStore) CancelExpired(ctx context.Context, orderID string) error {
	if err := f.failWith[orderID]; err != nil {
		return err
	}
	f.canceled = append(f.canceled, orderID)
	return nil
}

func TestSweepCancelsAllExpired(t *testing.T) {
	store := &fakeSweepStore{
		expired: []ExpiredOrder{{ID: "o1"}, {ID: "o2"}, {ID: "o3"}},
	}
	s := &Sweeper{Store: store, Log: zerolog.Nop()}

	report, err := s.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, []string{"o1", "o2", "o3"}, report.Cancelled)
	require.Empty(t, report.Failed)
	require.Equal(t, []string{"o1", "o2", "o3"}, store.canceled)
}

// Satu order gagal tidak boleh ngegagalin sisa sweep.
func TestSweepIsolatesPerOrderFailure(t *testing.T) {
	store := &fakeSweepStore{
		expired: []ExpiredOrder{{ID: "o1"}, {ID: "o2"}, {ID: "o3"}},
		failWith: map[string]error{
			"o2": errors.New("boom"),
		},
	}
	s := &Sweeper{Store: store, Log: zerolog.Nop()}

	report, err := s.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	require.Equal(t, []string{"o1", "o3"}, report.Cancelled)
	require.Len(t, report.Failed, 1)
	require.Equal(t, "o2", report.Failed[0].OrderID)
	require.Contains(t, report.Failed[0].Reason, "boom")
}

func TestSweepEmpty(t *testing.T) {
	s := &Sweeper{Store: &fakeSweepStore{}, Log: zerolog.Nop()}

	report, err := s.Sweep(context.Background(), time.Now())
	require.NoError(t, err)
	require.Empty(t, report.Cancelled)
	require.Empty(t, report.Failed)
}

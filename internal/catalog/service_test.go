package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ridepass/ridepass/internal/platform/httpx"
)

type memoryRepo struct {
	entries map[string]Entry
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{entries: make(map[string]Entry)}
}

func (r *memoryRepo) ListActive(ctx context.Context, contextType string) ([]Entry, error) {
	var out []Entry
	for _, e := range r.entries {
		if e.Active {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memoryRepo) UpsertBatch(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		r.entries[e.Code] = e
	}
	return nil
}

var _ RepositoryPort = (*memoryRepo)(nil)

func TestUpsertCanonicalizesRoutes(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo)

	err := svc.Upsert(context.Background(), []Entry{
		{Code: "PERM_BOOK_PASS", Title: "Book a travel pass", Route: "/Booking/Pass/?step=1", Active: true},
	})
	require.NoError(t, err)
	require.Equal(t, "/Booking/Pass", repo.entries["PERM_BOOK_PASS"].Route)
}

func TestUpsertValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	err := svc.Upsert(ctx, nil)
	require.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.Upsert(ctx, []Entry{{Code: "", Route: "/x"}})
	require.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.Upsert(ctx, []Entry{{Code: "PERM_X", Route: "  "}})
	require.ErrorIs(t, err, httpx.ErrValidation)

	err = svc.Upsert(ctx, []Entry{
		{Code: "PERM_X", Route: "/x"},
		{Code: "PERM_X", Route: "/y"},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

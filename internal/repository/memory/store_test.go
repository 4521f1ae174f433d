package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/repository"
)

func TestStore_ScopesBySubject(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	name := "Asha"

	created, err := store.InsertCustomer(ctx, "op-1", models.CustomerRecord{Name: &name})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	require.NotNil(t, created.CreatedAt)

	own, err := store.ListCustomers(ctx, "op-1")
	require.NoError(t, err)
	assert.Len(t, own, 1)

	other, err := store.ListCustomers(ctx, "op-2")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = store.GetCustomer(ctx, "op-2", created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_ChildWindow(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return day })

	bottles := int64(4)
	_, err := store.InsertDelivery(ctx, "op", "c1", models.DeliveryRecord{Bottles: &bottles})
	require.NoError(t, err)
	store.AddDeliveryRecord("op", "c1", models.DeliveryRecord{ID: "undated", Bottles: &bottles})

	all, err := store.ListDeliveries(ctx, "op", "c1", repository.Window{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	today, err := store.ListDeliveries(ctx, "op", "c1", repository.DayWindow(day, time.UTC))
	require.NoError(t, err)
	assert.Len(t, today, 1, "undated records fall outside any bounded window")

	tomorrow, err := store.ListDeliveries(ctx, "op", "c1", repository.DayWindow(day.AddDate(0, 0, 1), time.UTC))
	require.NoError(t, err)
	assert.Empty(t, tomorrow)
}

func TestStore_ListSubjects(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	_, _ = store.InsertCustomer(ctx, "b", models.CustomerRecord{})
	_, _ = store.InsertCustomer(ctx, "a", models.CustomerRecord{})

	subjects, err := store.ListSubjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, subjects)
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStore().ListCustomers(ctx, "op")
	assert.ErrorIs(t, err, context.Canceled)
}

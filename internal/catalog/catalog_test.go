package catalog

import (
	"context"
	"testing"
	"time"

	"istasyon-backend/internal/apperror"
	"istasyon-backend/internal/models"
	"istasyon-backend/internal/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_NozzlesScopedAndFiltered(t *testing.T) {
	f := testutil.Seed(t)
	s := NewStore(f.DB)
	ctx := context.Background()

	all, err := s.Nozzles(ctx, f.Station.ID, false)
	require.NoError(t, err)
	// pasif tabanca ve diğer istasyonunki listelenmez
	require.Len(t, all, 3)
	assert.Equal(t, "P1-A", all[0].Code)
	assert.True(t, all[0].FuelType.Price.Equal(testutil.Dec("100")))

	require.NoError(t, f.DB.Model(&models.Nozzle{}).Where("id = ?", f.NozzleB.ID).Update("is_available", false).Error)
	avail, err := s.Nozzles(ctx, f.Station.ID, true)
	require.NoError(t, err)
	assert.Len(t, avail, 2)
}

func TestStore_PaymentMethodScope(t *testing.T) {
	f := testutil.Seed(t)
	s := NewStore(f.DB)
	ctx := context.Background()

	m, err := s.PaymentMethod(ctx, f.Station.ID, f.Cash.ID)
	require.NoError(t, err)
	assert.True(t, m.IsCash)

	_, err = s.PaymentMethod(ctx, f.Other.ID, f.Cash.ID)
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	list, err := s.Denominations(ctx, f.Station.ID)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, f.Note200.ID, list[0].ID)
}

func TestNewCached_NilClientPassesThrough(t *testing.T) {
	f := testutil.Seed(t)
	store := NewStore(f.DB)

	r := NewCached(store, nil, time.Minute)
	assert.Same(t, store, r)
}

func TestCached_RedisDownFallsBackToStore(t *testing.T) {
	f := testutil.Seed(t)
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { client.Close() })

	r := NewCached(NewStore(f.DB), client, time.Minute)
	ctx := context.Background()

	methods, err := r.PaymentMethods(ctx, f.Station.ID)
	require.NoError(t, err)
	assert.Len(t, methods, 2)

	m, err := r.PaymentMethod(ctx, f.Station.ID, f.Card.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kredi Kartı", m.Name)

	_, err = r.PaymentMethod(ctx, f.Station.ID, 9999)
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	list, err := r.Denominations(ctx, f.Station.ID)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	nozzles, err := r.Nozzles(ctx, f.Station.ID, true)
	require.NoError(t, err)
	assert.Len(t, nozzles, 3)
}

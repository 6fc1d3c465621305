package db

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	auditentity "github.com/shandysiswandi/ktvs/internal/audit/entity"
	auditdb "github.com/shandysiswandi/ktvs/internal/audit/outbound/db"
	"github.com/shandysiswandi/ktvs/internal/coupon/entity"
	"github.com/shandysiswandi/ktvs/internal/pkg/goerror"
	"github.com/shandysiswandi/ktvs/internal/pkg/hash"
	"github.com/shandysiswandi/ktvs/internal/pkg/instrument"
	"github.com/shandysiswandi/ktvs/internal/pkg/pgtest"
	"github.com/shandysiswandi/ktvs/internal/shared/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCoupon(code string, t entity.Type) entity.Coupon {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	v := 50
	return entity.Coupon{
		Code:      code,
		Type:      t,
		Value:     &v,
		Signature: "sig",
		ExpiresAt: now.AddDate(0, 0, 30),
		CreatedAt: now,
		Issuer:    "admin",
	}
}

func event(id int64, t auditentity.EventType) auditentity.Event {
	return auditentity.Event{ID: id, Type: t, Actor: actor.New("admin", "", ""), Timestamp: time.Now().UTC()}
}

func TestDB_InsertAndGet(t *testing.T) {
	pool := pgtest.Postgres(t)
	ctx := context.Background()
	store := NewDB(pool, instrument.NewNoop())

	c := newCoupon("COUPON-A", entity.TypeQuotaBoost)
	require.NoError(t, store.Insert(ctx, c, event(1, auditentity.EventCouponIssued)))
	assert.ErrorIs(t, store.Insert(ctx, c, event(2, auditentity.EventCouponIssued)), goerror.ErrConflict)

	got, err := store.Get(ctx, "COUPON-A")
	require.NoError(t, err)
	assert.Equal(t, entity.TypeQuotaBoost, got.Type)
	assert.Equal(t, 50, got.ValueOr(0))
	assert.True(t, c.ExpiresAt.Equal(got.ExpiresAt))
	assert.False(t, got.IsConsumed)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, goerror.ErrNotFound)
}

func TestDB_ConsumeOnlyOnce(t *testing.T) {
	pool := pgtest.Postgres(t)
	ctx := context.Background()
	store := NewDB(pool, instrument.NewNoop())
	audits := auditdb.NewDB(pool, instrument.NewNoop())

	c := newCoupon("COUPON-B", entity.TypeDiscount)
	require.NoError(t, store.Insert(ctx, c, event(10, auditentity.EventCouponIssued)))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, lost int
		others   []error
	)
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.Consume(ctx, c.Code, "user", time.Now().UTC(), false,
				event(int64(100+i), auditentity.EventCouponRedeemed))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, goerror.ErrConflict):
				lost++
			default:
				others = append(others, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, others)
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, lost)

	n, err := audits.Count(ctx, auditentity.Filter{EventType: auditentity.EventCouponRedeemed})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.Get(ctx, c.Code)
	require.NoError(t, err)
	assert.True(t, got.IsConsumed)
	require.NotNil(t, got.RedeemedBy)
	assert.Equal(t, "user", *got.RedeemedBy)
}

func TestDB_ReusableStaysOpenAndList(t *testing.T) {
	pool := pgtest.Postgres(t)
	ctx := context.Background()
	store := NewDB(pool, instrument.NewNoop())

	c := newCoupon("COUPON-C", entity.TypeUnlimitedGeneration)
	c.Value = nil
	require.NoError(t, store.Insert(ctx, c, event(20, auditentity.EventCouponIssued)))

	require.NoError(t, store.Consume(ctx, c.Code, "u1", time.Now().UTC(), true, event(21, auditentity.EventCouponRedeemed)))
	require.NoError(t, store.Consume(ctx, c.Code, "u2", time.Now().UTC(), true, event(22, auditentity.EventCouponRedeemed)))

	got, err := store.Get(ctx, c.Code)
	require.NoError(t, err)
	assert.False(t, got.IsConsumed)
	assert.Nil(t, got.Value)
	assert.Nil(t, got.RedeemedBy)

	d := newCoupon("COUPON-D", entity.TypeStorageBoost)
	d.CreatedAt = d.CreatedAt.Add(time.Hour)
	require.NoError(t, store.Insert(ctx, d, event(23, auditentity.EventCouponIssued)))
	require.NoError(t, store.Consume(ctx, d.Code, "u3", time.Now().UTC(), false, event(24, auditentity.EventCouponRedeemed)))

	all, err := store.List(ctx, false, 10)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "COUPON-D", all[0].Code)

	open, err := store.List(ctx, true, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "COUPON-C", open[0].Code)
}

func TestDB_EditedRowFailsSignature(t *testing.T) {
	pool := pgtest.Postgres(t)
	ctx := context.Background()
	store := NewDB(pool, instrument.NewNoop())
	signer := hash.NewHMACSHA256("coupon-signing-key")

	tests := []struct {
		name string
		code string
		sql  string
	}{
		{name: "value", code: "COUPON-V", sql: `UPDATE coupons SET value = 1000000 WHERE code = $1`},
		{name: "value cleared", code: "COUPON-N", sql: `UPDATE coupons SET value = NULL WHERE code = $1`},
		{name: "type", code: "COUPON-T", sql: `UPDATE coupons SET type = 'storage-boost' WHERE code = $1`},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCoupon(tt.code, entity.TypeQuotaBoost)
			sig, err := signer.Hash(c.SigningPayload())
			require.NoError(t, err)
			c.Signature = string(sig)
			require.NoError(t, store.Insert(ctx, c, event(int64(300+i), auditentity.EventCouponIssued)))

			stored, err := store.Get(ctx, tt.code)
			require.NoError(t, err)
			require.True(t, signer.Verify(stored.Signature, stored.SigningPayload()))

			_, err = pool.Exec(ctx, tt.sql, tt.code)
			require.NoError(t, err)

			edited, err := store.Get(ctx, tt.code)
			require.NoError(t, err)
			assert.False(t, signer.Verify(edited.Signature, edited.SigningPayload()))
		})
	}
}

func TestDB_Release(t *testing.T) {
	pool := pgtest.Postgres(t)
	ctx := context.Background()
	store := NewDB(pool, instrument.NewNoop())

	c := newCoupon("COUPON-R", entity.TypeQuotaBoost)
	require.NoError(t, store.Insert(ctx, c, event(400, auditentity.EventCouponIssued)))
	require.NoError(t, store.Consume(ctx, c.Code, "u1", time.Now().UTC(), false, event(401, auditentity.EventCouponRedeemed)))

	err := store.Release(ctx, c.Code, "u2", false, event(402, auditentity.EventCouponRedeemed))
	assert.ErrorIs(t, err, goerror.ErrConflict)

	require.NoError(t, store.Release(ctx, c.Code, "u1", false, event(403, auditentity.EventCouponRedeemed)))

	got, err := store.Get(ctx, c.Code)
	require.NoError(t, err)
	assert.False(t, got.IsConsumed)
	assert.Nil(t, got.RedeemedBy)
	assert.Nil(t, got.RedeemedAt)

	require.NoError(t, store.Consume(ctx, c.Code, "u2", time.Now().UTC(), false, event(404, auditentity.EventCouponRedeemed)))

	n, err := auditdb.NewDB(pool, instrument.NewNoop()).Count(ctx, auditentity.Filter{EventType: auditentity.EventCouponRedeemed})
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

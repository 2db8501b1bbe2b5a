package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/petbook/internal/petbook/domain"
	"github.com/aussiebroadwan/petbook/internal/petbook/store"
	"github.com/aussiebroadwan/petbook/pkg/ratelimit"
	"github.com/aussiebroadwan/petbook/pkg/slogx"
)

func TestHousekeepingCleanup(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	ctx := t.Context()
	now := time.Now()

	require.NoError(t, st.Users().CreateUser(ctx, domain.User{ID: "u1", Email: "a@petbook.com.br", PasswordHash: "x"}))
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID: "rt-old", UserID: "u1", TokenHash: "old", SessionID: "s", ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, st.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID: "rt-live", UserID: "u1", TokenHash: "live", SessionID: "s", ExpiresAt: now.Add(time.Hour),
	}))
	require.NoError(t, st.EmailTokens().CreateEmailToken(ctx, domain.EmailToken{
		ID: "et-old", UserID: "u1", Purpose: domain.PurposeConfirm, TokenHash: "et-old", ExpiresAt: now.Add(-time.Hour),
	}))
	require.NoError(t, st.PendingShops().UpsertPendingShop(ctx, domain.PendingShop{
		Email: "stale@petbook.com.br", ShopName: "Velha", CreatedAt: now.Add(-PendingShopMaxAge - time.Hour),
	}))
	require.NoError(t, st.PendingShops().UpsertPendingShop(ctx, domain.PendingShop{
		Email: "fresh@petbook.com.br", ShopName: "Nova", CreatedAt: now,
	}))

	clk := &clock{now: now}
	limiter := ratelimit.New(ratelimit.Config{Now: clk.Now})
	limiter.RecordAttempt("signin:a@petbook.com.br")
	clk.Advance(ratelimit.DefaultWindow)

	hk := NewHousekeepingService(st, limiter, slogx.Discard(), 0)
	require.Equal(t, time.Hour, hk.Interval)
	hk.Cleanup(ctx)

	_, err := st.RefreshTokens().GetRefreshTokenByHash(ctx, "old")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.RefreshTokens().GetRefreshTokenByHash(ctx, "live")
	require.NoError(t, err)

	_, err = st.EmailTokens().GetEmailTokenByHash(ctx, "et-old")
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = st.PendingShops().GetPendingShop(ctx, "stale@petbook.com.br")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.PendingShops().GetPendingShop(ctx, "fresh@petbook.com.br")
	require.NoError(t, err)

	require.Zero(t, limiter.Len())
}

func TestHousekeepingStartStop(t *testing.T) {
	t.Parallel()

	hk := NewHousekeepingService(newTestStore(t), nil, slogx.Discard(), time.Millisecond)
	hk.Start()
	time.Sleep(5 * time.Millisecond)
	hk.Stop()
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lune-shop/backend-lune/internal/account"
	"github.com/lune-shop/backend-lune/internal/config"
	"github.com/lune-shop/backend-lune/internal/obs"
)

const demoUserID = "00000000-0000-0000-0000-000000000001"

type seedProduct struct {
	name      string
	price     int64
	compareAt *int64
	stock     int
}

func ptr(v int64) *int64 { return &v }

var products = []seedProduct{
	{name: "Linen Shirt", price: 40_000, compareAt: ptr(52_000), stock: 120},
	{name: "Silk Scarf", price: 20_000, stock: 45},
	{name: "Wool Coat", price: 180_000, compareAt: ptr(220_000), stock: 18},
	{name: "Canvas Tote", price: 28_000, stock: 300},
	{name: "Leather Belt", price: 35_000, stock: 0},
}

func main() {
	logger := obs.NewLogger("console", "info")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := seed(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	logger.Info().Msg("seed complete")
}

func seed(ctx context.Context, pool *pgxpool.Pool) error {
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (name, price, compare_at, stock, is_active)
			VALUES ($1, $2, $3, $4, TRUE)
			ON CONFLICT DO NOTHING`,
			p.name, p.price, p.compareAt, p.stock)
		if err != nil {
			return fmt.Errorf("seed product %q: %w", p.name, err)
		}
	}

	hash, err := argon2id.CreateHash("demo-password", argon2id.DefaultParams)
	if err != nil {
		return fmt.Errorf("hash demo password: %w", err)
	}
	_, err = pool.Exec(ctx, `
		INSERT INTO users (id, email, name, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`,
		demoUserID, "demo@lune.shop", "Demo User", hash)
	if err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}

	coupons := []struct {
		id          string
		name        string
		kind        string
		percentBps  int32
		amount      int64
		minSpend    int64
		maxDiscount int64
	}{
		{id: "welcome10", name: "10% off orders over 50,000", kind: "percent", percentBps: 1_000, minSpend: 50_000, maxDiscount: 20_000},
		{id: "spring5000", name: "5,000 off orders over 30,000", kind: "fixed", amount: 5_000, minSpend: 30_000},
	}
	for _, c := range coupons {
		_, err := pool.Exec(ctx, `
			INSERT INTO coupons (id, name, kind, percent_bps, amount, min_spend, max_discount, is_active, valid_until)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, now() + interval '90 days')
			ON CONFLICT (id) DO NOTHING`,
			c.id, c.name, c.kind, c.percentBps, c.amount, c.minSpend, c.maxDiscount)
		if err != nil {
			return fmt.Errorf("seed coupon %q: %w", c.id, err)
		}
		_, err = pool.Exec(ctx, `
			INSERT INTO user_coupons (user_id, coupon_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			demoUserID, c.id)
		if err != nil {
			return fmt.Errorf("grant coupon %q: %w", c.id, err)
		}
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO user_points (user_id, points)
		VALUES ($1, 100000)
		ON CONFLICT (user_id) DO UPDATE SET points = EXCLUDED.points`,
		demoUserID)
	if err != nil {
		return fmt.Errorf("seed demo points: %w", err)
	}

	for _, provider := range []string{account.ProviderKakaoPay, account.ProviderTossPay} {
		_, err := pool.Exec(ctx, `
			INSERT INTO linked_pay_providers (user_id, provider)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			demoUserID, provider)
		if err != nil {
			return fmt.Errorf("seed linked provider %q: %w", provider, err)
		}
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO saved_cards (user_id, brand, last4, is_default)
		VALUES ($1, 'visa', '4242', TRUE)
		ON CONFLICT DO NOTHING`,
		demoUserID)
	if err != nil {
		return fmt.Errorf("seed demo card: %w", err)
	}

	return nil
}

package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store reads account state from Postgres. It satisfies PointsReader,
// LinkedProviders and CardReader.
type Store struct {
	Pool *pgxpool.Pool
}

// Balance returns the user's spendable points. Unknown users have 0.
func (s *Store) Balance(ctx context.Context, userID string) (int64, error) {
	if s == nil || s.Pool == nil {
		return 0, fmt.Errorf("account store not configured")
	}
	var balance int64
	err := s.Pool.QueryRow(ctx,
		`SELECT points FROM user_points WHERE user_id = $1`, userID,
	).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query points balance: %w", err)
	}
	return balance, nil
}

// Linked returns the simple-pay providers the user has connected.
func (s *Store) Linked(ctx context.Context, userID string) (map[string]bool, error) {
	if s == nil || s.Pool == nil {
		return nil, fmt.Errorf("account store not configured")
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT provider FROM linked_pay_providers WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("query linked providers: %w", err)
	}
	defer rows.Close()

	linked := map[string]bool{}
	for rows.Next() {
		var provider string
		if err := rows.Scan(&provider); err != nil {
			return nil, fmt.Errorf("scan linked provider: %w", err)
		}
		linked[provider] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate linked providers: %w", err)
	}
	return linked, nil
}

// Card returns the saved card if it belongs to the user.
func (s *Store) Card(ctx context.Context, userID string, cardID int64) (Card, error) {
	if s == nil || s.Pool == nil {
		return Card{}, fmt.Errorf("account store not configured")
	}
	var c Card
	err := s.Pool.QueryRow(ctx,
		`SELECT id, brand, last4, is_default FROM saved_cards WHERE user_id = $1 AND id = $2`,
		userID, cardID,
	).Scan(&c.ID, &c.Brand, &c.Last4, &c.IsDefault)
	if errors.Is(err, pgx.ErrNoRows) {
		return Card{}, fmt.Errorf("card %d: %w", cardID, ErrCardNotFound)
	}
	if err != nil {
		return Card{}, fmt.Errorf("query saved card: %w", err)
	}
	return c, nil
}

// DecrementPoints subtracts amount from the user's balance inside tx.
// It fails if the balance would go negative.
func DecrementPoints(ctx context.Context, tx pgx.Tx, userID string, amount int64) error {
	if amount <= 0 {
		return nil
	}
	tag, err := tx.Exec(ctx,
		`UPDATE user_points SET points = points - $2, updated_at = now()
		 WHERE user_id = $1 AND points >= $2`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("decrement points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("decrement points: insufficient balance")
	}
	return nil
}

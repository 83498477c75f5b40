package entitlements

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides subscription lookups/mutations against the billing schema.
type Store struct {
	pg     *pgxpool.Pool
	schema string
}

func NewStore(pg *pgxpool.Pool, schema string) *Store {
	s := strings.TrimSpace(schema)
	if s == "" {
		s = "billing"
	}
	return &Store{pg: pg, schema: s}
}

func (s *Store) table() string { return s.schema + ".subscriptions" }

// Activate records a verified payment for userID. It inserts an active row,
// or, if the user already holds one, updates its plan/payment in place. The
// statement is guarded by the partial unique index on (user_id) WHERE
// status='active', so two verifications racing for the same user converge
// on a single active row.
func (s *Store) Activate(ctx context.Context, userID, planID, paymentID string) error {
	if s.pg == nil {
		return errors.New("entitlements: store not configured")
	}
	_, err := s.pg.Exec(ctx, `
		INSERT INTO `+s.table()+` (user_id, plan_id, status, payment_id)
		VALUES ($1, $2, 'active', $3)
		ON CONFLICT (user_id) WHERE status = 'active'
		DO UPDATE SET plan_id = EXCLUDED.plan_id, payment_id = EXCLUDED.payment_id, updated_at = NOW()`,
		userID, planID, paymentID)
	return err
}

// GetActive returns the user's active subscription, or nil if none exists.
func (s *Store) GetActive(ctx context.Context, userID string) (*Record, error) {
	if s.pg == nil || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	var r Record
	err := s.pg.QueryRow(ctx, `
		SELECT id, user_id, plan_id, status, COALESCE(payment_id, ''), created_at, updated_at
		FROM `+s.table()+` WHERE user_id=$1 AND status='active' LIMIT 1`,
		userID).Scan(&r.ID, &r.UserID, &r.PlanID, &r.Status, &r.PaymentID, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Deactivate flips the user's active row to inactive (e.g., after a refund
// settles upstream). Rows are never physically deleted here.
func (s *Store) Deactivate(ctx context.Context, userID string) error {
	if s.pg == nil || strings.TrimSpace(userID) == "" {
		return nil
	}
	_, err := s.pg.Exec(ctx, `
		UPDATE `+s.table()+` SET status='inactive', updated_at=NOW()
		WHERE user_id=$1 AND status='active'`, userID)
	return err
}

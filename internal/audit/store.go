// Package audit keeps a Postgres record of every subscription submission
// attempt: who, which plan, the assembled totals, and the outcome. The log
// is advisory; a write failure never fails the submission itself.
package audit

import (
	"context"
	"database/sql"
	"time"
)

// SubmissionRecord is one audit row.
type SubmissionRecord struct {
	ID             int64
	SessionID      string
	CustomerID     int64
	PlanID         int64
	SubscriptionID int64
	Total          float64
	Discount       float64
	Net            float64
	Tax            float64
	IsSponsor      bool
	Outcome        string
	CreatedAt      time.Time
}

const (
	OutcomeCreated = "created"
	OutcomeFailed  = "failed"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const insertQuery = `
	INSERT INTO submission_audit
		(session_id, customer_id, plan_id, subscription_id, total, discount, net, tax, is_sponsor, outcome, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	RETURNING id`

func (s *Store) Insert(ctx context.Context, rec *SubmissionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	return s.db.QueryRowContext(ctx, insertQuery,
		rec.SessionID,
		rec.CustomerID,
		rec.PlanID,
		rec.SubscriptionID,
		rec.Total,
		rec.Discount,
		rec.Net,
		rec.Tax,
		rec.IsSponsor,
		rec.Outcome,
		rec.CreatedAt,
	).Scan(&rec.ID)
}

const recentQuery = `
	SELECT id, session_id, customer_id, plan_id, subscription_id, total, discount, net, tax, is_sponsor, outcome, created_at
	FROM submission_audit
	WHERE customer_id = $1
	ORDER BY created_at DESC
	LIMIT $2`

// RecentByCustomer returns the latest submission attempts for a customer,
// newest first.
func (s *Store) RecentByCustomer(ctx context.Context, customerID int64, limit int) ([]SubmissionRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, recentQuery, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SubmissionRecord
	for rows.Next() {
		var rec SubmissionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.CustomerID,
			&rec.PlanID,
			&rec.SubscriptionID,
			&rec.Total,
			&rec.Discount,
			&rec.Net,
			&rec.Tax,
			&rec.IsSponsor,
			&rec.Outcome,
			&rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

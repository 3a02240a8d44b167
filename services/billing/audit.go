// audit.go — payment audit trail in the service's own Postgres.
//
// Every verification attempt lands here, accepted or rejected, keyed by the
// provider's order id. Schema:
//
//	CREATE TABLE payment_audit (
//	    id         uuid PRIMARY KEY,
//	    user_id    text NOT NULL,
//	    order_id   text NOT NULL,
//	    payment_id text NOT NULL,
//	    plan       text NOT NULL,
//	    amount     bigint NOT NULL,
//	    result     text NOT NULL,
//	    created_at timestamptz NOT NULL DEFAULT now()
//	);
package billing

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// AuditStore appends payment verification outcomes.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore wraps a Postgres handle. A nil db drops writes so the
// service runs without Postgres in dev.
func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Record appends one audit row. result is "verified" or "rejected".
func (a *AuditStore) Record(ctx context.Context, userID, orderID, paymentID, plan string, amount int64, result string) error {
	if a.db == nil {
		return nil
	}
	_, err := a.db.ExecContext(ctx,
		`INSERT INTO payment_audit (id, user_id, order_id, payment_id, plan, amount, result, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		uuid.NewString(), userID, orderID, paymentID, plan, amount, result,
	)
	return err
}

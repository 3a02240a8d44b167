// views.go — service-owned view tracking.
//
// View events live in the service's own Postgres, not in the managed backend:
// they are high-volume, append-only, and only ever read back in aggregate for
// trending. Schema:
//
//	CREATE TABLE content_views (
//	    id         uuid PRIMARY KEY,
//	    content_id text NOT NULL,
//	    user_id    text NOT NULL,
//	    viewed_at  timestamptz NOT NULL DEFAULT now()
//	);
//	CREATE INDEX content_views_viewed_at_idx ON content_views (viewed_at);
package catalog

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// ViewStore records view events and aggregates them for trending.
type ViewStore struct {
	db *sql.DB
}

// NewViewStore wraps a Postgres handle. A nil db yields a store that drops
// writes and returns empty aggregates, so the service runs without Postgres
// in dev.
func NewViewStore(db *sql.DB) *ViewStore {
	return &ViewStore{db: db}
}

// Record appends one view event.
func (v *ViewStore) Record(ctx context.Context, contentID, userID string) error {
	if v.db == nil {
		return nil
	}
	_, err := v.db.ExecContext(ctx,
		`INSERT INTO content_views (id, content_id, user_id, viewed_at) VALUES ($1, $2, $3, now())`,
		uuid.NewString(), contentID, userID,
	)
	return err
}

// TrendingRow is one entry in the trending aggregate.
type TrendingRow struct {
	ContentID string `json:"content_id"`
	Views     int64  `json:"views"`
}

// Trending returns the most-viewed content ids over the last `days` days,
// highest first.
func (v *ViewStore) Trending(ctx context.Context, days, limit int) ([]TrendingRow, error) {
	if v.db == nil {
		return []TrendingRow{}, nil
	}

	since := time.Now().AddDate(0, 0, -days)
	rows, err := v.db.QueryContext(ctx,
		`SELECT content_id, COUNT(*) AS views
		   FROM content_views
		  WHERE viewed_at >= $1
		  GROUP BY content_id
		  ORDER BY views DESC, content_id
		  LIMIT $2`,
		since, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TrendingRow{}
	for rows.Next() {
		var r TrendingRow
		if err := rows.Scan(&r.ContentID, &r.Views); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

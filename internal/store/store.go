// Package store persists pipeline run results to PostgreSQL.
//
// Persistence is optional: the service runs without a database and the store
// is only wired in when a connection URL is configured. Each run writes a run
// header, its transactions (bulk-loaded with COPY), and its exceptions and
// rejected rows, all in one database transaction keyed by the run ID.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/retailkit/poscanon/internal/pipeline"
)

// Store writes run results to Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps a connection pool. The caller owns the pool's lifecycle.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the run tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveResult persists one run atomically. A failure leaves no partial run
// behind.
func (s *Store) SaveResult(ctx context.Context, result *pipeline.Result) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) // No-op if already committed

	if err := insertRun(ctx, tx, result); err != nil {
		return err
	}
	if err := copyTransactions(ctx, tx, result.RunID, result.Transactions); err != nil {
		return err
	}
	if err := insertExceptions(ctx, tx, result.RunID, result.Exceptions); err != nil {
		return err
	}
	if err := insertRejected(ctx, tx, result.RunID, result.Rejected); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit run %s: %w", result.RunID, err)
	}
	return nil
}

func insertRun(ctx context.Context, tx pgx.Tx, result *pipeline.Result) error {
	sum := result.Summary
	_, err := tx.Exec(ctx, `
		INSERT INTO runs (
			id, created_at, total_rows, accepted, rejected, locations,
			first_date, last_date, void_rate, refund_rate, avg_discount_rate
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		result.RunID, time.Now().UTC(), sum.TotalRows, sum.Accepted, sum.Rejected,
		sum.Locations, nullString(sum.FirstDate), nullString(sum.LastDate),
		sum.VoidRate, sum.RefundRate, sum.AvgDiscountRate,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", result.RunID, err)
	}
	return nil
}

func copyTransactions(ctx context.Context, tx pgx.Tx, runID string, txs []pipeline.Transaction) error {
	if len(txs) == 0 {
		return nil
	}

	columns := []string{
		"run_id", "order_id", "location_id", "ts", "staff_ref", "category",
		"product", "quantity", "unit_price", "unit_cost", "discount_rate",
		"tender", "order_type", "status", "excise_tax", "state_tax",
		"local_tax", "total_tax", "total", "sale_date", "sale_hour",
		"day_of_week", "daypart", "margin",
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"transactions"}, columns,
		pgx.CopyFromSlice(len(txs), func(i int) ([]any, error) {
			t := txs[i]
			return []any{
				runID, t.OrderID, t.LocationID, t.Timestamp,
				nullString(t.StaffRef), nullString(t.Category), nullString(t.Product),
				t.Quantity, t.UnitPrice, nullFloat(t.UnitCost), t.DiscountRate,
				string(t.Tender), string(t.OrderType), string(t.Status),
				t.ExciseTax, t.StateTax, t.LocalTax, t.TotalTax, t.Total,
				t.Date, t.Hour, t.DayOfWeek, string(t.Daypart), t.Margin,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("copy transactions for run %s: %w", runID, err)
	}
	if n != int64(len(txs)) {
		return fmt.Errorf("copy transactions for run %s: copied %d of %d rows", runID, n, len(txs))
	}
	return nil
}

func insertExceptions(ctx context.Context, tx pgx.Tx, runID string, excs []pipeline.Exception) error {
	for _, exc := range excs {
		_, err := tx.Exec(ctx, `
			INSERT INTO exceptions (
				run_id, kind, severity, transaction_ref, location_id,
				sale_date, staff_ref, detail, computed_value, expected_value
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			runID, string(exc.Kind), string(exc.Severity),
			nullString(exc.TransactionRef), nullString(exc.LocationID),
			nullString(exc.Date), nullString(exc.StaffRef), exc.Detail,
			nullFloat(exc.ComputedValue), nullFloat(exc.ExpectedValue),
		)
		if err != nil {
			return fmt.Errorf("insert exception %s for run %s: %w", exc.Kind, runID, err)
		}
	}
	return nil
}

func insertRejected(ctx context.Context, tx pgx.Tx, runID string, rejected []pipeline.RejectedRow) error {
	for _, row := range rejected {
		_, err := tx.Exec(ctx, `
			INSERT INTO rejected_rows (run_id, line, reason, raw_row)
			VALUES ($1, $2, $3, $4)`,
			runID, row.Line, row.Reason, row.Row,
		)
		if err != nil {
			return fmt.Errorf("insert rejected row %d for run %s: %w", row.Line, runID, err)
		}
	}
	return nil
}

// nullString maps "" to SQL NULL so optional fields stay distinguishable from
// empty values.
func nullString(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func nullFloat(f *float64) pgtype.Float8 {
	if f == nil {
		return pgtype.Float8{}
	}
	return pgtype.Float8{Float64: *f, Valid: true}
}

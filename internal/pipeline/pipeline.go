package pipeline

// pipeline.go sequences the run: one batch-level schema check, then per-row
// coercion, normalization, timezone resolution and enrichment (parallel, no
// ordering requirement between rows), then exception detection over the
// complete enriched batch. Output order always equals input order.

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Pipeline runs batches of raw POS rows through the normalization and
// exception-detection stages. A Pipeline is safe for concurrent runs: the
// only per-run mutable state (the staff allocator) is created inside Run.
type Pipeline struct {
	resolver   *TimezoneResolver
	detector   *Detector
	thresholds Thresholds
	workers    int
}

// New builds a pipeline for the given location table and thresholds.
func New(locations []Location, thresholds Thresholds) (*Pipeline, error) {
	resolver, err := NewTimezoneResolver(locations)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		resolver:   resolver,
		detector:   NewDetector(thresholds),
		thresholds: thresholds,
		workers:    runtime.GOMAXPROCS(0),
	}, nil
}

// rowOutcome is the per-row slot filled during the parallel phase. Exactly
// one of tx/reject is set.
type rowOutcome struct {
	tx     *Transaction
	reject *RejectedRow
}

// Run processes one batch and returns canonical transactions, exceptions,
// and quarantined rows. It fails fast with a SchemaError before touching any
// row, or with a ConfigError when a row references a location that has no
// timezone entry; no partial results are emitted on a fatal error.
func (p *Pipeline) Run(ctx context.Context, batch Batch) (*Result, error) {
	started := time.Now()

	mapping, err := ResolveSchema(batch.Columns)
	if err != nil {
		return nil, err
	}

	staff := NewStaffAllocator()
	outcomes := make([]rowOutcome, len(batch.Rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range batch.Rows {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			values, err := coerceRow(mapping, batch.Rows[i])
			if err != nil {
				outcomes[i].reject = &RejectedRow{
					Line:   i + 1,
					Reason: err.Error(),
					Row:    batch.Rows[i],
				}
				return nil
			}

			normalizeRow(values, staff)

			local, err := p.resolver.Resolve(values.timestamp, values.zoned, values.locationID)
			if err != nil {
				// Missing timezone config is fatal for the whole run.
				return err
			}

			tx := enrich(values, local)
			outcomes[i].tx = &tx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := &Result{RunID: uuid.NewString()}
	for i := range outcomes {
		switch {
		case outcomes[i].tx != nil:
			result.Transactions = append(result.Transactions, *outcomes[i].tx)
		case outcomes[i].reject != nil:
			result.Rejected = append(result.Rejected, *outcomes[i].reject)
		}
	}

	// Detection needs the complete enriched batch; the errgroup wait above is
	// the barrier that guarantees it.
	for i := range result.Transactions {
		result.Exceptions = append(result.Exceptions, p.detector.DetectRow(&result.Transactions[i])...)
	}
	result.Exceptions = append(result.Exceptions, p.detector.DetectBatch(result.Transactions)...)

	result.Summary = summarize(len(batch.Rows), result.Transactions, result.Rejected)

	slog.Info("pipeline run complete",
		"run_id", result.RunID,
		"rows", len(batch.Rows),
		"accepted", result.Summary.Accepted,
		"rejected", result.Summary.Rejected,
		"exceptions", len(result.Exceptions),
		"staff_labeled", staff.Count(),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return result, nil
}

// summarize builds the run's quality report.
func summarize(totalRows int, txs []Transaction, rejected []RejectedRow) Summary {
	s := Summary{
		TotalRows: totalRows,
		Accepted:  len(txs),
		Rejected:  len(rejected),
	}
	if len(txs) == 0 {
		return s
	}

	locations := make(map[string]bool)
	var voided, refunded int
	var discountSum float64
	first, last := txs[0].Date, txs[0].Date

	for i := range txs {
		tx := &txs[i]
		locations[tx.LocationID] = true
		discountSum += tx.DiscountRate
		switch tx.Status {
		case StatusVoided:
			voided++
		case StatusRefunded:
			refunded++
		}
		if tx.Date < first {
			first = tx.Date
		}
		if tx.Date > last {
			last = tx.Date
		}
	}

	s.Locations = len(locations)
	s.FirstDate = first
	s.LastDate = last
	s.VoidRate = float64(voided) / float64(len(txs))
	s.RefundRate = float64(refunded) / float64(len(txs))
	s.AvgDiscountRate = discountSum / float64(len(txs))
	return s
}

package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// maxConcurrentLoads bounds the per-group store reads issued in parallel.
const maxConcurrentLoads = 4

var tracer = otel.Tracer("github.com/mmynk/splitledger/internal/service")

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// loadLedgers reads the transactions of every group concurrently.
// The result keeps the order of groups.
func loadLedgers(ctx context.Context, store storage.Store, groups []*models.Group) (_ []calculator.GroupLedger, err error) {
	ctx, span := tracer.Start(ctx, "service.loadLedgers",
		trace.WithAttributes(attribute.Int("groups", len(groups))))
	defer func() { endSpan(span, err) }()

	ledgers := make([]calculator.GroupLedger, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLoads)
	for i, group := range groups {
		g.Go(func() error {
			txs, err := store.ListTransactionsByGroup(gctx, group.ID)
			if err != nil {
				return fmt.Errorf("failed to load transactions of group %s: %w", group.ID, err)
			}
			ledgers[i] = calculator.GroupLedger{Group: *group, Transactions: txs}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return ledgers, nil
}

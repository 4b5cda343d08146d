// Package worker copies recorded transactions from the local ledger to
// the configured mirror destination.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/mirror"
	"financas/internal/storage"
)

// MirrorWorker consumes transaction recorded messages and mirrors the
// rows. A periodic rescan catches anything whose message was lost.
type MirrorWorker struct {
	store     *storage.Ledger
	appender  mirror.RowAppender
	events    *amqp.Client
	batchSize int
	interval  time.Duration
}

func NewMirrorWorker(store *storage.Ledger, appender mirror.RowAppender, events *amqp.Client, batchSize int, interval time.Duration) *MirrorWorker {
	return &MirrorWorker{
		store:     store,
		appender:  appender,
		events:    events,
		batchSize: batchSize,
		interval:  interval,
	}
}

// Run blocks until the context is cancelled, consuming messages and
// rescanning for unmirrored rows in parallel.
func (w *MirrorWorker) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.events.ConsumeTransactionRecorded(ctx, func(msg *amqp.TransactionRecordedMessage) error {
			return w.MirrorTransaction(ctx, msg.ID)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := w.MirrorPending(ctx); err != nil {
					slog.ErrorContext(ctx, "Rescan failed", "error", err)
				}
			}
		}
	})

	return g.Wait()
}

// MirrorTransaction exports one transaction and marks it mirrored.
// Already-mirrored rows are skipped, so redelivered messages are safe.
func (w *MirrorWorker) MirrorTransaction(ctx context.Context, id int64) error {
	tx, err := w.store.GetTransaction(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			slog.WarnContext(ctx, "Transaction vanished before mirroring", "id", id)
			return nil
		}
		return fmt.Errorf("get transaction: %w", err)
	}
	if tx.Mirrored {
		return nil
	}

	row, err := w.buildRow(ctx, tx)
	if err != nil {
		return err
	}

	ref, err := w.appender.Append(ctx, row)
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}

	if err := w.store.MarkMirrored(ctx, tx.ID); err != nil {
		return fmt.Errorf("mark mirrored: %w", err)
	}

	slog.InfoContext(ctx, "Mirrored transaction", "id", tx.ID, "ref", ref)
	return nil
}

// MirrorPending exports every unmirrored transaction up to the batch size.
func (w *MirrorWorker) MirrorPending(ctx context.Context) error {
	ids, err := w.store.ListUnmirrored(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unmirrored: %w", err)
	}
	for _, id := range ids {
		if err := w.MirrorTransaction(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (w *MirrorWorker) buildRow(ctx context.Context, tx core.Transaction) (mirror.Row, error) {
	account, err := w.store.GetAccount(ctx, tx.SourceAccountID)
	if err != nil {
		return mirror.Row{}, fmt.Errorf("get source account: %w", err)
	}

	row := mirror.Row{
		ID:          tx.ID,
		Date:        tx.Date.Format("2006-01-02"),
		Kind:        tx.Kind.Label(),
		Amount:      tx.Amount.String(),
		Account:     account.Name,
		Description: tx.Description,
	}

	if tx.CategoryID != nil {
		category, err := w.store.GetCategory(ctx, *tx.CategoryID)
		if err != nil {
			return mirror.Row{}, fmt.Errorf("get category: %w", err)
		}
		row.Category = category.Name
	}
	if tx.DestinationAccountID != nil {
		destination, err := w.store.GetAccount(ctx, *tx.DestinationAccountID)
		if err != nil {
			return mirror.Row{}, fmt.Errorf("get destination account: %w", err)
		}
		row.Destination = destination.Name
	}

	return row, nil
}

// Package ledger coordinates the storage layer with the optional
// event publisher used by the mirror worker.
package ledger

import (
	"context"
	"log/slog"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/storage"
)

// Service is the application-facing API shared by the CLI, the menu,
// and the web dashboard.
type Service struct {
	store  *storage.Ledger
	events *amqp.Client
}

// New builds a Service. The events client may be nil, in which case
// transactions are recorded locally without publishing.
func New(store *storage.Ledger, events *amqp.Client) *Service {
	return &Service{store: store, events: events}
}

func (s *Service) SeedDefaults(ctx context.Context) error {
	return s.store.SeedDefaults(ctx)
}

func (s *Service) CreateAccount(ctx context.Context, name string, opening core.Money) (core.Account, error) {
	return s.store.CreateAccount(ctx, name, opening)
}

func (s *Service) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *Service) CreateCategory(ctx context.Context, name string, kind core.CategoryKind) (core.Category, error) {
	return s.store.CreateCategory(ctx, name, kind)
}

func (s *Service) ListCategories(ctx context.Context, kind *core.CategoryKind) ([]core.Category, error) {
	return s.store.ListCategories(ctx, kind)
}

// RecordTransaction writes the transaction and, when a publisher is
// configured, notifies the mirror queue. Publish failures are logged
// and never surfaced: the local write already succeeded and the
// worker's periodic rescan will pick the row up.
func (s *Service) RecordTransaction(ctx context.Context, p storage.RecordParams) (core.Transaction, error) {
	tx, err := s.store.RecordTransaction(ctx, p)
	if err != nil {
		return core.Transaction{}, err
	}

	if s.events != nil {
		if err := s.events.PublishTransactionRecorded(ctx, tx.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to publish transaction recorded message",
				"error", err,
				"id", tx.ID)
		}
	}

	return tx, nil
}

func (s *Service) ListTransactions(ctx context.Context, accountID int64, month *core.MonthRef) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, accountID, month)
}

func (s *Service) Balance(ctx context.Context, accountID int64) (core.Money, error) {
	return s.store.Balance(ctx, accountID)
}

func (s *Service) MonthSummary(ctx context.Context, month core.MonthRef) (core.MonthSummary, error) {
	return s.store.MonthSummary(ctx, month)
}

// Close releases the store and the publisher, if any.
func (s *Service) Close() error {
	if s.events != nil {
		if err := s.events.Close(); err != nil {
			slog.Error("Failed to close AMQP client", "error", err)
		}
	}
	return s.store.Close()
}

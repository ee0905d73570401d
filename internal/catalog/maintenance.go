package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"MiniCatalog/internal/domain"
	"MiniCatalog/pkg/kit"
)

var errNoArchive = errors.New("no archive configured")

type Archive interface {
	Dump(ctx context.Context, entries []domain.Entry) error
	Restore(ctx context.Context) ([]domain.Entry, error)
}

// Dump archives the whole catalog and then empties it. On failure the
// catalog is left as it was.
func (m *Manager) Dump(ctx context.Context) error {
	start := time.Now()
	if m.archive == nil {
		return errNoArchive
	}

	entries := m.Entries()
	if err := m.archive.Dump(ctx, entries); err != nil {
		m.log.Error("error dumping data", zap.Error(err))
		m.metrics.Observe("dump", kit.StatusError, start)
		return fmt.Errorf("dump catalog: %w", err)
	}

	m.Replace(nil)
	m.log.Info("catalog dumped and cleared", zap.Int("products", len(entries)))
	m.metrics.Observe("dump", kit.StatusOK, start)
	return nil
}

// Restore replaces the catalog with the most recent archive. On failure the
// catalog is left as it was.
func (m *Manager) Restore(ctx context.Context) error {
	start := time.Now()
	if m.archive == nil {
		return errNoArchive
	}

	entries, err := m.archive.Restore(ctx)
	if err != nil {
		m.log.Error("error restoring data", zap.Error(err))
		m.metrics.Observe("restore", kit.StatusError, start)
		return fmt.Errorf("restore catalog: %w", err)
	}

	m.Replace(entries)
	m.log.Info("catalog restored", zap.Int("products", len(entries)))
	m.metrics.Observe("restore", kit.StatusOK, start)
	return nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"MiniCatalog/internal/config"
	"MiniCatalog/internal/domain"
	"MiniCatalog/pkg/kit"
)

var ErrNoSnapshot = errors.New("no snapshot found")

type snapshot struct {
	ID      uuid.UUID       `json:"id"`
	TakenAt time.Time       `json:"taken_at"`
	Entries []snapshotEntry `json:"entries"`
}

type snapshotEntry struct {
	Product snapshotProduct  `json:"product"`
	Reviews []snapshotReview `json:"reviews"`
}

type snapshotProduct struct {
	Kind       string          `json:"kind"`
	ID         int             `json:"id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Rating     int             `json:"rating"`
	BestBefore string          `json:"best_before,omitempty"`
}

type snapshotReview struct {
	Rating   int    `json:"rating"`
	Comments string `json:"comments"`
}

// Dump writes entries as one snapshot file in the temp directory.
func (s *FileStore) Dump(ctx context.Context, entries []domain.Entry) error {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return err
	}

	snap := snapshot{ID: uuid.New(), TakenAt: start.UTC(), Entries: make([]snapshotEntry, 0, len(entries))}
	for _, e := range entries {
		se, err := toSnapshotEntry(e)
		if err != nil {
			s.metrics.Observe("snapshot_write", kit.StatusError, start)
			return err
		}
		snap.Entries = append(snap.Entries, se)
	}

	data, err := json.Marshal(snap)
	if err != nil {
		s.metrics.Observe("snapshot_write", kit.StatusError, start)
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(s.cfg.TempDir, 0o755); err != nil {
		s.metrics.Observe("snapshot_write", kit.StatusError, start)
		return fmt.Errorf("create temp dir: %w", err)
	}
	file, err := s.writeSnapshot(start.UnixMilli(), data)
	if err != nil {
		s.metrics.Observe("snapshot_write", kit.StatusError, start)
		return err
	}

	s.log.Info("catalog snapshot written",
		zap.String("file", file),
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int("products", len(snap.Entries)))
	s.metrics.Observe("snapshot_write", kit.StatusOK, start)
	return nil
}

// writeSnapshot stores data under the first free timestamp at or after ts,
// so a dump never replaces an earlier one taken in the same millisecond.
func (s *FileStore) writeSnapshot(ts int64, data []byte) (string, error) {
	for {
		file := filepath.Join(s.cfg.TempDir, config.Expand(s.cfg.SnapshotFile, ts))
		err := writeFileExclusive(file, data)
		if errors.Is(err, fs.ErrExist) {
			ts++
			continue
		}
		return file, err
	}
}

// Restore reads the most recent snapshot and deletes it once decoded.
func (s *FileStore) Restore(ctx context.Context) ([]domain.Entry, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := s.latestSnapshot()
	if err != nil {
		s.metrics.Observe("snapshot_read", kit.StatusError, start)
		return nil, err
	}

	data, err := os.ReadFile(file)
	if err != nil {
		s.metrics.Observe("snapshot_read", kit.StatusError, start)
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.metrics.Observe("snapshot_read", kit.StatusError, start)
		return nil, fmt.Errorf("decode snapshot %s: %w", file, err)
	}

	entries := make([]domain.Entry, 0, len(snap.Entries))
	for _, se := range snap.Entries {
		e, err := fromSnapshotEntry(se)
		if err != nil {
			s.metrics.Observe("snapshot_read", kit.StatusError, start)
			return nil, fmt.Errorf("decode snapshot %s: %w", file, err)
		}
		entries = append(entries, e)
	}

	if err := os.Remove(file); err != nil {
		s.log.Warn("snapshot restored but not removed", zap.String("file", file), zap.Error(err))
	}

	s.log.Info("catalog snapshot restored",
		zap.String("file", file),
		zap.String("snapshot_id", snap.ID.String()),
		zap.Int("products", len(entries)))
	s.metrics.Observe("snapshot_read", kit.StatusOK, start)
	return entries, nil
}

func (s *FileStore) latestSnapshot() (string, error) {
	dirEntries, err := os.ReadDir(s.cfg.TempDir)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoSnapshot
	}
	if err != nil {
		return "", fmt.Errorf("read temp dir %s: %w", s.cfg.TempDir, err)
	}

	prefix, suffix, _ := strings.Cut(s.cfg.SnapshotFile, "{0}")

	var (
		best   string
		bestTS int64 = -1
	)
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
			continue
		}
		mid := strings.TrimSuffix(strings.TrimPrefix(name, prefix), suffix)
		ts, err := strconv.ParseInt(mid, 10, 64)
		if err != nil {
			continue
		}
		if ts > bestTS {
			best, bestTS = name, ts
		}
	}
	if best == "" {
		return "", ErrNoSnapshot
	}
	return filepath.Join(s.cfg.TempDir, best), nil
}

func toSnapshotEntry(e domain.Entry) (snapshotEntry, error) {
	p := e.Product
	sp := snapshotProduct{ID: p.ID, Name: p.Name, Price: p.Price, Rating: p.Rating.Ordinal()}
	switch p.Kind {
	case domain.NonPerishable:
		sp.Kind = kindNonPerishable
	case domain.Perishable:
		sp.Kind = kindPerishable
		sp.BestBefore = p.BestBefore().Format(time.DateOnly)
	default:
		return snapshotEntry{}, fmt.Errorf("product %d: unknown kind %v", p.ID, p.Kind)
	}

	reviews := make([]snapshotReview, 0, len(e.Reviews))
	for _, r := range e.Reviews {
		reviews = append(reviews, snapshotReview{Rating: r.Rating.Ordinal(), Comments: r.Comments})
	}
	return snapshotEntry{Product: sp, Reviews: reviews}, nil
}

func fromSnapshotEntry(se snapshotEntry) (domain.Entry, error) {
	sp := se.Product
	rating, err := domain.RatingFromOrdinal(sp.Rating)
	if err != nil {
		return domain.Entry{}, err
	}

	var p domain.Product
	switch sp.Kind {
	case kindNonPerishable:
		p, err = domain.NewNonPerishable(sp.ID, sp.Name, sp.Price, rating)
	case kindPerishable:
		bb, perr := time.Parse(time.DateOnly, sp.BestBefore)
		if perr != nil {
			return domain.Entry{}, perr
		}
		p, err = domain.NewPerishable(sp.ID, sp.Name, sp.Price, rating, bb)
	default:
		return domain.Entry{}, fmt.Errorf("product %d: unknown kind %q", sp.ID, sp.Kind)
	}
	if err != nil {
		return domain.Entry{}, err
	}

	reviews := make([]domain.Review, 0, len(se.Reviews))
	for _, sr := range se.Reviews {
		r, err := domain.RatingFromOrdinal(sr.Rating)
		if err != nil {
			return domain.Entry{}, err
		}
		reviews = append(reviews, domain.Review{Rating: r, Comments: sr.Comments})
	}
	return domain.Entry{Product: p, Reviews: reviews}, nil
}

// Package storage persists the catalog as flat files: positional product and
// review records in a data directory, JSON snapshots in a temp directory, and
// rendered reports in a reports directory.
package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"MiniCatalog/internal/config"
	"MiniCatalog/internal/domain"
	"MiniCatalog/pkg/kit"
)

type FileStore struct {
	cfg     config.Config
	codec   Codec
	log     *zap.Logger
	metrics *kit.Metrics
}

func NewFileStore(cfg config.Config, log *zap.Logger, metrics *kit.Metrics) *FileStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileStore{
		cfg:     cfg,
		codec:   Codec{Sep: cfg.FieldSeparator},
		log:     log,
		metrics: metrics,
	}
}

// LoadAll reads every product file in the data directory together with its
// reviews file. Unparseable records are logged and skipped. Only a failure
// to list the directory is returned as an error.
func (s *FileStore) LoadAll(ctx context.Context) ([]domain.Entry, error) {
	start := time.Now()

	dirEntries, err := os.ReadDir(s.cfg.DataDir)
	if err != nil {
		s.metrics.Observe("load", kit.StatusError, start)
		return nil, fmt.Errorf("read data dir %s: %w", s.cfg.DataDir, err)
	}

	var files []string
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasPrefix(de.Name(), s.cfg.ProductPrefix) {
			continue
		}
		files = append(files, filepath.Join(s.cfg.DataDir, de.Name()))
	}

	results := make([]*domain.Entry, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.cfg.LoadWorkers))
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, ok := s.loadProduct(file)
			if !ok {
				return nil
			}
			results[i] = &domain.Entry{Product: p, Reviews: s.loadReviews(p)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.Observe("load", kit.StatusError, start)
		return nil, fmt.Errorf("load data: %w", err)
	}

	out := make([]domain.Entry, 0, len(results))
	seen := make(map[domain.Identity]string, len(results))
	for i, e := range results {
		if e == nil {
			continue
		}
		if prev, dup := seen[e.Product.Identity()]; dup {
			s.log.Warn("duplicate product identity, keeping first",
				zap.Int("id", e.Product.ID),
				zap.String("name", e.Product.Name),
				zap.String("kept", prev),
				zap.String("skipped", files[i]))
			s.metrics.SkipRecord("product")
			continue
		}
		seen[e.Product.Identity()] = files[i]
		out = append(out, *e)
	}

	s.log.Info("catalog data loaded",
		zap.Int("files", len(files)),
		zap.Int("products", len(out)),
		zap.Duration("duration", time.Since(start)))
	s.metrics.Observe("load", kit.StatusOK, start)
	return out, nil
}

func (s *FileStore) loadProduct(file string) (domain.Product, bool) {
	line, err := firstLine(file)
	if err != nil {
		s.log.Warn("error loading product", zap.String("file", file), zap.Error(err))
		s.metrics.SkipRecord("product")
		return domain.Product{}, false
	}
	p, err := s.codec.ParseProduct(line)
	if err != nil {
		s.log.Warn("error parsing product", zap.String("file", file), zap.Error(err))
		s.metrics.SkipRecord("product")
		return domain.Product{}, false
	}
	return p, true
}

func (s *FileStore) loadReviews(p domain.Product) []domain.Review {
	file := s.reviewsPath(p.ID)

	f, err := os.Open(file)
	if errors.Is(err, fs.ErrNotExist) {
		return []domain.Review{}
	}
	if err != nil {
		s.log.Warn("error loading reviews", zap.String("file", file), zap.Error(err))
		return []domain.Review{}
	}
	defer f.Close()

	reviews := []domain.Review{}
	rd := bufio.NewReader(f)
	for {
		line, err := rd.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			r, perr := s.codec.ParseReview(line)
			if perr != nil {
				s.log.Warn("error parsing review", zap.String("file", file), zap.Error(perr))
				s.metrics.SkipRecord("review")
			} else {
				reviews = append(reviews, r)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.log.Warn("error reading reviews", zap.String("file", file), zap.Error(err))
			break
		}
	}
	return reviews
}

// Save writes one product record file and its reviews file into the data
// directory. An entry without reviews removes any stale reviews file.
func (s *FileStore) Save(ctx context.Context, e domain.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	line, err := s.codec.FormatProduct(e.Product)
	if err != nil {
		return err
	}

	var b strings.Builder
	for _, r := range e.Reviews {
		rl, err := s.codec.FormatReview(r)
		if err != nil {
			return fmt.Errorf("product %d: %w", e.Product.ID, err)
		}
		b.WriteString(rl)
		b.WriteByte('\n')
	}

	if err := os.MkdirAll(s.cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	productFile := filepath.Join(s.cfg.DataDir, config.Expand(s.cfg.ProductFile, e.Product.ID))
	if err := writeFileAtomic(productFile, []byte(line+"\n")); err != nil {
		return err
	}

	reviewsFile := s.reviewsPath(e.Product.ID)
	if len(e.Reviews) == 0 {
		if err := os.Remove(reviewsFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove reviews file: %w", err)
		}
		return nil
	}
	return writeFileAtomic(reviewsFile, []byte(b.String()))
}

func (s *FileStore) reviewsPath(id int) string {
	return filepath.Join(s.cfg.DataDir, config.Expand(s.cfg.ReviewsFile, id))
}

func firstLine(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if line == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrParse, file)
	}
	return line, nil
}

// writeFileAtomic replaces path with data in one rename.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// writeFileExclusive publishes data at path only if nothing exists there yet.
// The error wraps fs.ErrExist when path is taken.
func writeFileExclusive(path string, data []byte) error {
	tmp, err := writeTemp(path, data)
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	if err := os.Link(tmp, path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func writeTemp(path string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".write-*")
	if err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return tmp.Name(), nil
}

package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"MiniCatalog/internal/config"
	"MiniCatalog/internal/domain"
	"MiniCatalog/pkg/kit"
)

func newTestStore(t *testing.T) (*FileStore, config.Config, *kit.Metrics, *observer.ObservedLogs) {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = filepath.Join(root, "data")
	cfg.ReportsDir = filepath.Join(root, "reports")
	cfg.TempDir = filepath.Join(root, "temp")
	require.NoError(t, os.MkdirAll(cfg.DataDir, 0o755))

	core, logs := observer.New(zapcore.DebugLevel)
	metrics := kit.NewMetrics(prometheus.NewRegistry())
	return NewFileStore(cfg, zap.New(core), metrics), cfg, metrics, logs
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadAll(t *testing.T) {
	s, cfg, metrics, logs := newTestStore(t)

	writeFile(t, cfg.DataDir, "product101.txt", "D,101,Tea,1.99,4\n")
	writeFile(t, cfg.DataDir, "reviews101.txt", "4,Nice hot cup of tea\n\nbroken line\n5,Great\n")
	writeFile(t, cfg.DataDir, "product103.txt", "F,103,Cake,3.99,0,2026-10-19\n")
	writeFile(t, cfg.DataDir, "product999.txt", "Z,999,Mystery,1,0\n")
	writeFile(t, cfg.DataDir, "product998.txt", "")
	writeFile(t, cfg.DataDir, "notes.txt", "D,500,Ignored,1,0\n")

	entries, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byID := map[int]domain.Entry{}
	for _, e := range entries {
		byID[e.Product.ID] = e
	}

	tea := byID[101]
	assert.Equal(t, "Tea", tea.Product.Name)
	require.Len(t, tea.Reviews, 2)
	assert.Equal(t, domain.Review{Rating: domain.FourStar, Comments: "Nice hot cup of tea"}, tea.Reviews[0])
	assert.Equal(t, domain.FiveStar, tea.Reviews[1].Rating)

	cake := byID[103]
	assert.Equal(t, domain.Perishable, cake.Product.Kind)
	assert.NotNil(t, cake.Reviews)
	assert.Empty(t, cake.Reviews)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Skipped.WithLabelValues("product")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Skipped.WithLabelValues("review")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Operations.WithLabelValues("load", kit.StatusOK)))
	assert.Equal(t, 1, logs.FilterMessage("error parsing product").Len())
	assert.Equal(t, 1, logs.FilterMessage("error loading product").Len())
	assert.Equal(t, 1, logs.FilterMessage("error parsing review").Len())
}

func TestLoadAllKeepsFirstDuplicate(t *testing.T) {
	s, cfg, _, logs := newTestStore(t)

	writeFile(t, cfg.DataDir, "product1a.txt", "D,1,Tea,1.00,0\n")
	writeFile(t, cfg.DataDir, "product1b.txt", "D,1,Tea,2.00,0\n")
	writeFile(t, cfg.DataDir, "product1c.txt", "D,1,Coffee,3.00,0\n")

	entries, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Tea", entries[0].Product.Name)
	assert.True(t, decimal.RequireFromString("1").Equal(entries[0].Product.Price))
	assert.Equal(t, "Coffee", entries[1].Product.Name)
	assert.Equal(t, 1, logs.FilterMessage("duplicate product identity, keeping first").Len())
}

func TestLoadAllMissingDir(t *testing.T) {
	s, cfg, metrics, _ := newTestStore(t)
	require.NoError(t, os.RemoveAll(cfg.DataDir))

	_, err := s.LoadAll(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Operations.WithLabelValues("load", kit.StatusError)))
}

func TestLoadAllCanceled(t *testing.T) {
	s, cfg, _, _ := newTestStore(t)
	writeFile(t, cfg.DataDir, "product1.txt", "D,1,Tea,1.00,0\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.LoadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveThenLoad(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	ctx := context.Background()

	tea, err := domain.NewNonPerishable(101, "Tea", decimal.RequireFromString("1.99"), domain.FourStar)
	require.NoError(t, err)
	cake, err := domain.NewPerishable(103, "Cake", decimal.RequireFromString("3.99"), domain.NotRated,
		time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, domain.Entry{
		Product: tea,
		Reviews: []domain.Review{{Rating: domain.FourStar, Comments: "Nice hot cup of tea"}},
	}))
	require.NoError(t, s.Save(ctx, domain.Entry{Product: cake}))

	entries, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		switch e.Product.ID {
		case 101:
			assertSameProduct(t, tea, e.Product)
			assert.Len(t, e.Reviews, 1)
		case 103:
			assertSameProduct(t, cake, e.Product)
			assert.Empty(t, e.Reviews)
		default:
			t.Fatalf("unexpected product %d", e.Product.ID)
		}
	}

	// Saving without reviews drops the stale reviews file.
	require.NoError(t, s.Save(ctx, domain.Entry{Product: tea}))
	assert.NoFileExists(t, s.reviewsPath(101))
}

func TestWriteReport(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteReport(ctx, 101, "c1", "first\n"))
	require.NoError(t, s.WriteReport(ctx, 101, "c1", "Tea\nNot reviewed\n"))

	data, err := os.ReadFile(s.ReportPath(101, "c1"))
	require.NoError(t, err)
	assert.Equal(t, "Tea\nNot reviewed\n", string(data))
	assert.Equal(t, "product101reportc1.txt", filepath.Base(s.ReportPath(101, "c1")))

	assert.Error(t, s.WriteReport(ctx, 101, "../escape", "x"))
	assert.Error(t, s.WriteReport(ctx, 101, "", "x"))
}

func TestLoadAllLongReviewLine(t *testing.T) {
	s, cfg, _, logs := newTestStore(t)

	long := strings.Repeat("chocolate ", 20_000)
	writeFile(t, cfg.DataDir, "product103.txt", "F,103,Cake,3.99,0,2026-10-19\n")
	writeFile(t, cfg.DataDir, "reviews103.txt", "5,"+long+"\n4,Very nice cake\n3,ok")

	entries, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)

	reviews := entries[0].Reviews
	require.Len(t, reviews, 3)
	assert.Equal(t, long, reviews[0].Comments)
	assert.Equal(t, domain.Review{Rating: domain.FourStar, Comments: "Very nice cake"}, reviews[1])
	assert.Equal(t, domain.Review{Rating: domain.ThreeStar, Comments: "ok"}, reviews[2])
	assert.Zero(t, logs.FilterMessage("error reading reviews").Len())
}

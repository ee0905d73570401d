package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MiniCatalog/internal/domain"
)

func TestDumpRestore(t *testing.T) {
	s, cfg, _, _ := newTestStore(t)
	ctx := context.Background()

	tea, err := domain.NewNonPerishable(101, "Tea", decimal.RequireFromString("1.99"), domain.FourStar)
	require.NoError(t, err)
	cake, err := domain.NewPerishable(103, "Cake", decimal.RequireFromString("3.99"), domain.TwoStar,
		time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	in := []domain.Entry{
		{Product: tea, Reviews: []domain.Review{{Rating: domain.FourStar, Comments: "Nice hot cup of tea"}}},
		{Product: cake, Reviews: []domain.Review{}},
	}
	require.NoError(t, s.Dump(ctx, in))

	files, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".tmp", filepath.Ext(files[0].Name()))

	out, err := s.Restore(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assertSameProduct(t, tea, out[0].Product)
	assert.Equal(t, in[0].Reviews, out[0].Reviews)
	assertSameProduct(t, cake, out[1].Product)
	assert.Empty(t, out[1].Reviews)

	files, err = os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Empty(t, files, "restore consumes the snapshot")

	_, err = s.Restore(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestRestorePicksLatestSnapshot(t *testing.T) {
	s, cfg, _, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(cfg.TempDir, 0o755))

	writeFile(t, cfg.TempDir, "1000.tmp", `{"entries":[{"product":{"kind":"D","id":1,"name":"Old","price":"1","rating":0},"reviews":[]}]}`)
	writeFile(t, cfg.TempDir, "2000.tmp", `{"entries":[{"product":{"kind":"D","id":2,"name":"New","price":"2","rating":3},"reviews":[{"rating":3,"comments":"ok"}]}]}`)
	writeFile(t, cfg.TempDir, "junk.tmp", `not json`)

	out, err := s.Restore(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "New", out[0].Product.Name)
	assert.Equal(t, domain.ThreeStar, out[0].Product.Rating)

	assert.FileExists(t, filepath.Join(cfg.TempDir, "1000.tmp"))
	assert.NoFileExists(t, filepath.Join(cfg.TempDir, "2000.tmp"))
}

func TestRestoreCorruptSnapshotIsKept(t *testing.T) {
	s, cfg, _, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(cfg.TempDir, 0o755))
	writeFile(t, cfg.TempDir, "3000.tmp", `{"entries":[{"product":{"kind":"D","id":1,"name":"Bad","price":"1","rating":9}}]}`)

	_, err := s.Restore(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidRating)
	assert.FileExists(t, filepath.Join(cfg.TempDir, "3000.tmp"))
}

func TestRestoreWithoutTempDir(t *testing.T) {
	s, _, _, _ := newTestStore(t)
	_, err := s.Restore(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestDumpNeverReplacesSnapshot(t *testing.T) {
	s, cfg, _, _ := newTestStore(t)
	ctx := context.Background()

	tea, err := domain.NewNonPerishable(101, "Tea", decimal.RequireFromString("1.99"), domain.FourStar)
	require.NoError(t, err)
	in := []domain.Entry{{Product: tea, Reviews: []domain.Review{}}}

	require.NoError(t, s.Dump(ctx, in))
	require.NoError(t, s.Dump(ctx, in))

	files, err := os.ReadDir(cfg.TempDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	for i := 0; i < 2; i++ {
		out, err := s.Restore(ctx)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assertSameProduct(t, tea, out[0].Product)
	}
	_, err = s.Restore(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestDumpSkipsTakenTimestamp(t *testing.T) {
	s, cfg, _, _ := newTestStore(t)
	require.NoError(t, os.MkdirAll(cfg.TempDir, 0o755))
	writeFile(t, cfg.TempDir, "1000.tmp", "first")

	file, err := s.writeSnapshot(1000, []byte("second"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.TempDir, "1001.tmp"), file)

	data, err := os.ReadFile(filepath.Join(cfg.TempDir, "1000.tmp"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

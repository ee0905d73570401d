package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runApp(t *testing.T, st *state, root string, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	app := newApp(st)
	app.Writer = &out
	app.ErrWriter = &out

	base := []string{service,
		"--data-dir", filepath.Join(root, "data"),
		"--reports-dir", filepath.Join(root, "reports"),
		"--temp-dir", filepath.Join(root, "temp"),
	}
	require.NoError(t, app.RunContext(context.Background(), append(base, args...)))
	return out.String()
}

func TestCreateReviewPersists(t *testing.T) {
	t.Setenv("CATALOG_LOG_LEVEL", "error")
	root := t.TempDir()

	out := runApp(t, &state{}, root, "create", "--id", "101", "--name", "Tea", "--price", "1.99")
	assert.Contains(t, out, "Tea, Price: £1.99")

	out = runApp(t, &state{}, root, "review", "101", "4", "Nice", "hot", "cup", "of", "tea")
	assert.Contains(t, out, "Rating: ★★★★,")

	data, err := os.ReadFile(filepath.Join(root, "data", "reviews101.txt"))
	require.NoError(t, err)
	assert.Equal(t, "4,Nice hot cup of tea\n", string(data))

	out = runApp(t, &state{}, root, "--locale", "fr-FR", "show", "101")
	assert.Contains(t, out, "Avis : ★★★★\tNice hot cup of tea")

	out = runApp(t, &state{}, root, "report", "--client", "c1", "101")
	assert.Equal(t, filepath.Join(root, "reports", "product101reportc1.txt"), strings.TrimSpace(out))
	assert.FileExists(t, strings.TrimSpace(out))
}

func TestDumpRestoreCommands(t *testing.T) {
	t.Setenv("CATALOG_LOG_LEVEL", "error")
	root := t.TempDir()

	runApp(t, &state{}, root, "create", "--id", "103", "--name", "Cake", "--price", "3.99",
		"--rating", "5", "--best-before", "2026-10-19")
	runApp(t, &state{}, root, "dump")

	require.NoError(t, os.RemoveAll(filepath.Join(root, "data")))
	out := runApp(t, &state{}, root, "restore")
	assert.Equal(t, "restored 1 products\n", out)
	assert.FileExists(t, filepath.Join(root, "data", "product103.txt"))

	out = runApp(t, &state{}, root, "list", "--sort", "rating")
	assert.Contains(t, out, "Cake, Price: £3.99, Rating: ★★★★★, Best Before: 19/10/2026 Food")
}

func TestDemo(t *testing.T) {
	t.Setenv("CATALOG_LOG_LEVEL", "error")
	st := &state{}
	out := runApp(t, st, t.TempDir(), "demo")

	assert.Contains(t, out, "Not reviewed")
	assert.Contains(t, out, "Review: ★★★★\tNice hot cup of tea")
	assert.Contains(t, out, "★★★★\t£0.20")
	assert.Equal(t, 1, st.shop.pm.Len())
}

func TestCreateRejectsTakenID(t *testing.T) {
	t.Setenv("CATALOG_LOG_LEVEL", "error")
	root := t.TempDir()
	st := &state{}

	runApp(t, st, root, "create", "--id", "5", "--name", "Tea", "--price", "1.99")

	app := newApp(st)
	app.Writer = &bytes.Buffer{}
	app.ErrWriter = &bytes.Buffer{}
	err := app.RunContext(context.Background(), []string{service,
		"--data-dir", filepath.Join(root, "data"),
		"create", "--id", "5", "--name", "Coffee", "--price", "2.99"})
	require.ErrorIs(t, err, errIDTaken)

	out := runApp(t, &state{}, root, "list")
	assert.Contains(t, out, "Tea")
	assert.NotContains(t, out, "Coffee")

	out = runApp(t, st, root, "create", "--id", "5", "--name", "Tea", "--price", "1.99")
	assert.Contains(t, out, "Tea, Price: £1.99")
}

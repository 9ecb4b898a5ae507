package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebtf/logcluster/internal/config"
	"github.com/thebtf/logcluster/internal/loader"
	"github.com/thebtf/logcluster/pkg/similarity"
)

func accessLines(n int) []string {
	lines := make([]string, 0, n)
	for i := 0; i < n; i++ {
		switch i % 3 {
		case 0:
			lines = append(lines, fmt.Sprintf("10.0.0.%d - - \"GET /index.html HTTP/1.1\" 200 %d", i%250, 1000+i))
		case 1:
			lines = append(lines, fmt.Sprintf("10.0.1.%d - - \"POST /api/login HTTP/1.1\" 401 %d", i%250, 20+i%7))
		default:
			lines = append(lines, fmt.Sprintf("worker %d crashed: segmentation fault", i))
		}
	}
	return lines
}

func writePlain(t *testing.T, path string, lines []string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
}

func writeGzip(t *testing.T, path string, lines []string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(strings.Join(lines, "\n")))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func testConfig(workers, batch int) *config.Config {
	cfg := config.Default()
	cfg.Workers = workers
	cfg.BatchSize = batch
	return cfg
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	lines := accessLines(60)
	plain := filepath.Join(dir, "access.log")
	zipped := filepath.Join(dir, "access.log.1.gz")
	writePlain(t, plain, lines[:40])
	writeGzip(t, zipped, lines[40:])

	res, err := New(testConfig(1, 16), nil).Run(context.Background(), []string{plain, zipped})

	require.NoError(t, err)
	assert.Equal(t, lines, res.Lines)
	assert.NoError(t, res.Clusters.Validate(len(lines)))
	assert.Equal(t, len(lines), res.Report.NumLines)
	assert.Equal(t, len(res.Clusters), res.Report.NumComps)
	for i, ll := range res.Report.LogLines {
		assert.Equal(t, i, ll.LogID)
		assert.Equal(t, lines[i], ll.Content)
	}
}

func TestRunner_WorkerCountDoesNotChangeResult(t *testing.T) {
	lines := accessLines(200)

	base, err := New(testConfig(1, 25), nil).Cluster(context.Background(), lines)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 8} {
		res, err := New(testConfig(workers, 25), nil).Cluster(context.Background(), lines)
		require.NoError(t, err)
		assert.True(t, base.Clusters.Equal(res.Clusters), "workers=%d", workers)
		assert.Equal(t, base.Report, res.Report, "workers=%d", workers)
	}
}

func TestRunner_SingleBatchMatchesDirectClustering(t *testing.T) {
	lines := accessLines(50)

	res, err := New(testConfig(1, 1000), nil).Cluster(context.Background(), lines)
	require.NoError(t, err)

	indices := make([]int, len(lines))
	for i := range indices {
		indices[i] = i
	}
	assert.Equal(t, similarity.Group(indices, lines, config.DefaultThreshold), res.Clusters)
}

func TestRunner_EmptyInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	require.NoError(t, os.WriteFile(path, nil, 0600))

	res, err := New(testConfig(4, 10), nil).Run(context.Background(), []string{path})

	require.NoError(t, err)
	assert.Empty(t, res.Clusters)
	assert.Equal(t, 0, res.Report.NumLines)
}

func TestRunner_MissingFile(t *testing.T) {
	_, err := New(testConfig(1, 10), nil).Run(context.Background(), []string{filepath.Join(t.TempDir(), "nope.log")})

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRunner_InvalidConfig(t *testing.T) {
	cfg := testConfig(1, 10)
	cfg.Threshold = 2

	_, err := New(cfg, nil).Cluster(context.Background(), accessLines(5))

	assert.ErrorIs(t, err, similarity.ErrInvalidThreshold)
}

func TestRunner_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig(4, 5), nil).Cluster(ctx, accessLines(100))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_UsesLoaderSplitting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crlf.log")
	require.NoError(t, os.WriteFile(path, []byte("a\r\nb\rc\n"), 0600))

	res, err := New(testConfig(1, 10), nil).Run(context.Background(), []string{path})

	require.NoError(t, err)
	assert.Equal(t, loader.SplitLines("a\r\nb\rc\n"), res.Lines)
	assert.Len(t, res.Lines, 3)
}

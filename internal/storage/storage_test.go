package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/admissions-crm/internal/config"
)

func newTestStorage(t *testing.T) *Storage {
	tmpDir := t.TempDir()
	cfg := config.StorageConfig{
		Type:      "local",
		LocalPath: tmpDir,
	}

	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return s
}

func writeArtifact(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestSaveArtifactCopiesIntoArtifactsDir(t *testing.T) {
	s := newTestStorage(t)
	src := writeArtifact(t, "report_executive_20240301T090000Z.csv", "metric,value\n")

	dst, err := s.SaveArtifact(context.Background(), src)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(s.config.LocalPath, "artifacts", filepath.Base(src)), dst)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "metric,value\n", string(data))
}

func TestSaveArtifactWithoutDirectoryKeepsPath(t *testing.T) {
	s, err := New(context.Background(), config.StorageConfig{Type: "local"})
	require.NoError(t, err)

	src := writeArtifact(t, "r.pdf", "%PDF")
	dst, err := s.SaveArtifact(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, src, dst)
}

func TestRecordAndListRuns(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.RecordRun(ctx, RunRecord{
			DefinitionID: "def-1",
			Type:         "executive",
			Format:       "pdf",
			Location:     "reports/x.pdf",
			RanAt:        base.AddDate(0, 0, 7*i),
		}))
	}
	require.NoError(t, s.RecordRun(ctx, RunRecord{DefinitionID: "def-2", RanAt: base}))

	runs, err := s.Runs(ctx, "def-1", 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, base.AddDate(0, 0, 14), runs[0].RanAt)
	assert.Equal(t, base.AddDate(0, 0, 7), runs[1].RanAt)

	none, err := s.Runs(ctx, "missing", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", ContentType("a.csv"))
	assert.Equal(t, "application/pdf", ContentType("a.pdf"))
	assert.Contains(t, ContentType("a.xlsx"), "spreadsheetml")
	assert.Equal(t, "application/octet-stream", ContentType("a.bin"))
}

func TestArtifactKey(t *testing.T) {
	s := &AWSStorage{prefix: "reports"}
	at := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	assert.Equal(t, "reports/2024/03/01/r.pdf", s.ArtifactKey("r.pdf", at))
}

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

func TestIngestCmd_Use(t *testing.T) {
	assert.Equal(t, "ingest [file]", ingestCmd.Use)
}

func TestIngestCmd_ErrorsWithoutService(t *testing.T) {
	oldIngest := ingestService
	ingestService = nil
	defer func() { ingestService = oldIngest }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestIngestCmd_ReadsFromFile(t *testing.T) {
	_, ingest, _, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("dark roast beats light roast"), 0o600))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", path, "--owner", "grace", "--source", "note"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestOwner = ""
		ingestSource = ""
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "dark roast beats light roast", ingest.content)
	assert.Equal(t, "grace", ingest.owner.String())
	assert.Equal(t, domain.SourceNote, ingest.meta.Source)
	assert.Equal(t, "notes", ingest.meta.Title)
	assert.Contains(t, buf.String(), "Ingested document doc-test")
}

func TestIngestCmd_NormalisesMarkdown(t *testing.T) {
	_, ingest, _, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "coffee.md")
	require.NoError(t, os.WriteFile(path, []byte("# Coffee Notes\n\n**dark** roast"), 0o600))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", path})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "Coffee Notes", ingest.meta.Title)
	assert.NotContains(t, ingest.content, "**")
	assert.Contains(t, ingest.content, "dark roast")
}

func TestIngestCmd_TitleFlagOverridesFileName(t *testing.T) {
	_, ingest, _, cleanup := setupTestServices()
	defer cleanup()

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("content"), 0o600))

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"ingest", path, "--title", "Coffee Notes"})
	defer func() {
		rootCmd.SetArgs(nil)
		ingestTitle = ""
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "Coffee Notes", ingest.meta.Title)
}

func TestIngestCmd_ReadsFromStdin(t *testing.T) {
	_, ingest, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("piped content"))
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "piped content", ingest.content)
	assert.True(t, ingest.owner.IsGuest())
}

func TestIngestCmd_PrintsWarnings(t *testing.T) {
	_, ingest, _, cleanup := setupTestServices()
	defer cleanup()
	ingest.receipt = &domain.IngestReceipt{
		DocumentID: "doc-9",
		ChunkCount: 2,
		Bucket:     domain.BucketUnspecified,
		Warnings:   []string{"classification unavailable, bucket left unspecified"},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetIn(strings.NewReader("content"))
	rootCmd.SetArgs([]string{"ingest"})
	defer func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "warning: classification unavailable")
}

func TestIngestCmd_MissingFileFails(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"ingest", filepath.Join(t.TempDir(), "missing.txt")})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "reading file")
}

package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

func TestQueryCmd_Use(t *testing.T) {
	assert.Equal(t, "query [text]", queryCmd.Use)
}

func TestQueryCmd_Long(t *testing.T) {
	assert.Contains(t, queryCmd.Long, "BM25")
	assert.Contains(t, queryCmd.Long, "reciprocal rank fusion")
}

func TestQueryCmd_RequiresExactlyOneArg(t *testing.T) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestQueryCmd_HasLimitFlag(t *testing.T) {
	flag := queryCmd.Flags().Lookup("limit")
	require.NotNil(t, flag, "limit flag should exist")
	assert.Equal(t, "n", flag.Shorthand)
	assert.Equal(t, "5", flag.DefValue)
}

func TestQueryCmd_ErrorsWithoutService(t *testing.T) {
	oldRetrieve := retrieveService
	retrieveService = nil
	defer func() { retrieveService = oldRetrieve }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"query", "anything"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestQueryCmd_ExecutesWithQuery(t *testing.T) {
	retrieve, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "coffee", "--owner", "grace"})
	defer func() {
		rootCmd.SetArgs(nil)
		queryOwner = ""
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Equal(t, "coffee", retrieve.query)
	assert.Equal(t, "grace", retrieve.opts.Owner.String())
	assert.Contains(t, buf.String(), "Results:")
	assert.Contains(t, buf.String(), "Coffee Notes")
}

func TestQueryCmd_EmptyOwnerIsGuest(t *testing.T) {
	retrieve, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "coffee"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.True(t, retrieve.opts.Owner.IsGuest())
}

func TestQueryCmd_BucketFlagFiltersBucket(t *testing.T) {
	retrieve, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "roadmap", "--bucket", "project"})
	defer func() {
		rootCmd.SetArgs(nil)
		queryBucket = ""
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	require.NotNil(t, retrieve.opts.Bucket)
	assert.Equal(t, domain.BucketProject, *retrieve.opts.Bucket)
}

func TestQueryCmd_JSONOutput(t *testing.T) {
	_, _, _, cleanup := setupTestServices()
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "coffee", "--json"})
	defer func() {
		rootCmd.SetArgs(nil)
		queryJSON = false
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), `"ChunkID": "doc-1-c0"`)
}

func TestQueryCmd_PrintsDegradations(t *testing.T) {
	retrieve, _, _, cleanup := setupTestServices()
	defer cleanup()
	retrieve.result = &domain.RetrieveResult{
		Degraded:     true,
		Degradations: []string{"keyword search unavailable, semantic-only results"},
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"query", "coffee"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "warning: keyword search unavailable")
	assert.Contains(t, buf.String(), "No results found.")
}

package milvus

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridian-labs/mnemo/internal/core/domain"
)

func TestOwnerExprGuest(t *testing.T) {
	expr := ownerExpr(domain.NormalizeIdentity("").Filter())
	assert.Equal(t, `owner_id in ["guest", ""]`, expr)
}

func TestOwnerExprUser(t *testing.T) {
	expr := ownerExpr(domain.NormalizeIdentity("user-42").Filter())
	assert.Equal(t, `owner_id in ["user-42"]`, expr)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc", truncate("abcdef", 3))

	// Rune boundaries are respected; the result never splits a rune.
	long := strings.Repeat("ψ", 10) // 2 bytes per rune
	got := truncate(long, 5)
	assert.Equal(t, "ψψ", got)
}

package utils

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	id := uuid.New()
	token, err := GenerateToken("secret", id, "store_owner", time.Hour, time.Now())
	require.NoError(t, err)

	gotID, role, err := ParseToken("secret", token)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)
	assert.Equal(t, "store_owner", role)

	_, _, err = ParseToken("other", token)
	assert.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, err := GenerateToken("secret", uuid.New(), "user", time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	_, _, err = ParseToken("secret", token)
	assert.Error(t, err)
}

func TestRandomValues(t *testing.T) {
	token, err := RandomToken(32)
	require.NoError(t, err)
	assert.Len(t, token, 64)

	code, err := NumericCode(6)
	require.NoError(t, err)
	assert.Regexp(t, `^\d{6}$`, code)

	assert.Equal(t, HashToken(token), HashToken(token))
	assert.Len(t, HashToken(token), 64)
}

func TestPaginationFrom(t *testing.T) {
	p := PaginationFrom(map[string]any{"page": 3.0, "limit": 10.0})
	assert.Equal(t, Pagination{Page: 3, Limit: 10, Offset: 20}, p)
	assert.Equal(t, Meta{Page: 3, Limit: 10, Total: 41, Pages: 5, HasNext: true, HasPrev: true}, p.Meta(41))

	assert.Equal(t, Pagination{Page: 1, Limit: 20, Offset: 0}, PaginationFrom(nil))
	assert.Equal(t, 0, PaginationFrom(nil).Meta(0).Pages)
}

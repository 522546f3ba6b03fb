package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasherSaltsEveryHash(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	first, err := h.Hash("secret")
	require.NoError(t, err)
	second, err := h.Hash("secret")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, h.Compare(first, "secret"))
	assert.True(t, h.Compare(second, "secret"))
	assert.False(t, h.Compare(first, "Secret"))
	assert.False(t, h.Compare("not-a-hash", "secret"))
}

func TestNewBcryptHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.MinCost, NewBcryptHasher(2).cost)
	assert.Equal(t, bcrypt.MaxCost, NewBcryptHasher(40).cost)
	assert.Equal(t, 10, NewBcryptHasher(10).cost)
}

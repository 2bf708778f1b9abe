package crypto

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateClientToken(t *testing.T) {
	a, err := GenerateClientToken()
	require.NoError(t, err)
	b, err := GenerateClientToken()
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
	raw, err := hex.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, ClientTokenBytes)
}

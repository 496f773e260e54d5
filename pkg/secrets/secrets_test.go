package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ledgerline/pkg/domain-errors"
)

func TestHKDFProvider_DerivationIsDeterministic(t *testing.T) {
	p, err := NewHKDFProvider([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	a, err := p.AnchorSecret("tenant-a")
	require.NoError(t, err)
	b, err := p.AnchorSecret("tenant-a")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestHKDFProvider_TenantsGetDistinctKeys(t *testing.T) {
	p, err := NewHKDFProvider([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	a, err := p.AnchorSecret("tenant-a")
	require.NoError(t, err)
	b, err := p.AnchorSecret("tenant-b")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestNewHKDFProvider_RejectsShortMaster(t *testing.T) {
	_, err := NewHKDFProvider([]byte("short"))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestHKDFProvider_RejectsEmptyTenant(t *testing.T) {
	p, err := NewHKDFProvider([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	_, err = p.AnchorSecret("")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestGenerate_ProducesUniqueSecrets(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEmpty(t, a)
}

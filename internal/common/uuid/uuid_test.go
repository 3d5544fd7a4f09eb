package uuid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsV7(t *testing.T) {
	id := New()
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestNewIsTimeOrdered(t *testing.T) {
	a := New()
	b := New()
	assert.LessOrEqual(t, a.String(), b.String())
}

func TestNewRandom(t *testing.T) {
	id, err := NewRandom()
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestParse(t *testing.T) {
	id := New()
	parsed, err := Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = Parse("not-a-uuid")
	assert.Error(t, err)
}

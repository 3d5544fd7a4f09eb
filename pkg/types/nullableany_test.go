package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullableAnyRoundTrip(t *testing.T) {
	na, err := NullableAnyFrom(map[string]int{"n": 7})
	require.NoError(t, err)
	assert.False(t, na.IsNil())

	data, err := json.Marshal(na)
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":7}`, string(data))

	decoded := NullableAny{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	out := map[string]int{}
	require.NoError(t, decoded.GetAs(&out))
	assert.Equal(t, 7, out["n"])
}

func TestNullableAnyPreservesRawJSON(t *testing.T) {
	raw := json.RawMessage(`{"a":1,"b":[true,null]}`)
	na, err := NullableAnyFrom(raw)
	require.NoError(t, err)

	data, err := json.Marshal(na)
	require.NoError(t, err)
	assert.Equal(t, string(raw), string(data))
}

func TestNullableAnyRejectsInvalidRaw(t *testing.T) {
	_, err := NullableAnyFrom(json.RawMessage(`{broken`))
	assert.Error(t, err)
}

func TestNullableAnyNull(t *testing.T) {
	na := NullableAny{}
	assert.True(t, na.IsNil())
	assert.Error(t, na.GetAs(&struct{}{}))

	data, err := json.Marshal(na)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	set := NullableAny{}
	require.NoError(t, json.Unmarshal([]byte(`5`), &set))
	require.NoError(t, json.Unmarshal([]byte(`null`), &set))
	assert.True(t, set.IsNil())
}

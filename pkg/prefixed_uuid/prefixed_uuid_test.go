package prefixed_uuid

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndString(t *testing.T) {
	id := New("mem")
	assert.Equal(t, "mem", id.Prefix)
	assert.NotEqual(t, uuid.Nil, id.UUID)
	assert.Equal(t, "mem-"+id.UUID.String(), id.String())
}

func TestFromString(t *testing.T) {
	raw := uuid.New()

	parsed, err := FromString("msg-" + raw.String())
	require.NoError(t, err)
	assert.Equal(t, "msg", parsed.Prefix)
	assert.Equal(t, raw, parsed.RawUUID())

	_, err = FromString("noprefix")
	assert.Error(t, err)

	_, err = FromString("mem-not-a-uuid")
	assert.Error(t, err)
}

func TestEqualAndIsZero(t *testing.T) {
	raw := uuid.New()
	a := FromUUID("mem", raw)
	b := FromUUID("mem", raw)
	c := FromUUID("msg", raw)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.True(t, PrefixedUUID{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestJSONRoundTrip(t *testing.T) {
	id := New("conv")

	data, err := json.Marshal(id)
	require.NoError(t, err)

	var decoded PrefixedUUID
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, id.Equal(decoded))

	var bad PrefixedUUID
	assert.Error(t, json.Unmarshal([]byte(`123`), &bad))
}

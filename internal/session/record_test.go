package session

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nberrors "github.com/felixgeelhaar/notebookctl/internal/errors"
)

func TestEncodeRecord_Envelope(t *testing.T) {
	data, err := EncodeRecord(Persisted{IsAuthenticated: true, User: &User{ID: "u1", Email: "a@example.com"}})
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &env))
	assert.JSONEq(t, `3`, string(env["version"]))
	assert.JSONEq(t, `{"isAuthenticated":true,"user":{"id":"u1","email":"a@example.com"}}`, string(env["state"]))

	var sum string
	require.NoError(t, json.Unmarshal(env["checksum"], &sum))
	assert.Len(t, sum, 64)
}

func TestDecodeRecord_PreservesExtraUserFields(t *testing.T) {
	in := Persisted{
		IsAuthenticated: true,
		User:            &User{ID: "u1", Email: "a@example.com", Picture: "https://x/a.png", Extra: map[string]interface{}{"bio": "hello"}},
	}
	data, err := EncodeRecord(in)
	require.NoError(t, err)

	out, err := DecodeRecord(data)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeRecord_LegacyWithoutChecksum(t *testing.T) {
	out, err := DecodeRecord([]byte(`{"state":{"isAuthenticated":true,"user":{"id":"u1"}},"version":3}`))
	require.NoError(t, err)
	assert.True(t, out.IsAuthenticated)
	assert.Equal(t, "u1", out.User.ID)
}

func TestDecodeRecord_Migrations(t *testing.T) {
	for _, version := range []int{0, 1, 2} {
		data, err := json.Marshal(map[string]interface{}{
			"state":   map[string]interface{}{"isAuthenticated": true, "user": map[string]interface{}{"id": "u1"}},
			"version": version,
		})
		require.NoError(t, err)

		out, err := DecodeRecord(data)
		require.NoError(t, err)
		assert.Nil(t, out.User, "v%d user dropped", version)
		assert.True(t, out.IsAuthenticated, "v%d keeps isAuthenticated", version)
	}
}

func TestDecodeRecord_Rejects(t *testing.T) {
	valid, err := EncodeRecord(Persisted{IsAuthenticated: true})
	require.NoError(t, err)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(valid, &env))
	env["state"] = map[string]interface{}{"isAuthenticated": false, "user": nil}
	tampered, err := json.Marshal(env)
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
		code nberrors.ErrorCode
	}{
		{"not json", []byte("{{"), nberrors.ErrCodeStoreCorrupt},
		{"state not object", []byte(`{"state":[1,2],"version":3}`), nberrors.ErrCodeStoreCorrupt},
		{"tampered", tampered, nberrors.ErrCodeStoreCorrupt},
		{"future version", []byte(`{"state":{},"version":4}`), nberrors.ErrCodeStoreVersionTooNew},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeRecord(tt.data)
			require.Error(t, err)
			assert.Equal(t, tt.code, nberrors.Code(err))
		})
	}
}

func TestDecodeRecord_EmptyState(t *testing.T) {
	out, err := DecodeRecord([]byte(`{"version":3}`))
	require.NoError(t, err)
	assert.Equal(t, Persisted{}, out)
}

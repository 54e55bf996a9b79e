package session

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/notebookctl/internal/errors"
)

const (
	// StorageKey names the single persisted record.
	StorageKey = "auth-storage"

	// SchemaVersion is the version written by this build.
	SchemaVersion = 3
)

// Persisted is the subset of State that survives restarts.
type Persisted struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user"`
}

type envelope struct {
	State    json.RawMessage `json:"state"`
	Version  int             `json:"version"`
	Checksum string          `json:"checksum,omitempty"`
}

// migration rewrites a decoded state object written before version to.
type migration struct {
	to    int
	apply func(map[string]interface{}) map[string]interface{}
}

// migrations run in order; each applies when the stored version is below its target.
var migrations = []migration{
	{to: 3, apply: dropIdentity},
}

// dropIdentity forces a fresh /me call after upgrade.
func dropIdentity(state map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(state))
	for k, v := range state {
		out[k] = v
	}
	out["user"] = nil
	out["lastAuthCheck"] = nil
	return out
}

func checksum(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// EncodeRecord serializes p at the current schema version.
func EncodeRecord(p Persisted) ([]byte, error) {
	state, err := json.Marshal(p)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreWriteFailed, "failed to encode session", err)
	}
	return json.Marshal(envelope{
		State:    state,
		Version:  SchemaVersion,
		Checksum: checksum(state),
	})
}

// DecodeRecord parses a stored record, verifies its checksum when present
// and migrates it to the current schema.
func DecodeRecord(data []byte) (Persisted, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Persisted{}, errors.NewStoreCorruptError("not a session record", err)
	}
	if env.Version > SchemaVersion {
		return Persisted{}, errors.NewStoreVersionTooNewError(env.Version, SchemaVersion)
	}
	if env.Checksum != "" && env.Checksum != checksum(env.State) {
		return Persisted{}, errors.NewStoreCorruptError("checksum mismatch", nil)
	}
	if len(env.State) == 0 || string(env.State) == "null" {
		return Persisted{}, nil
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(env.State, &fields); err != nil {
		return Persisted{}, errors.NewStoreCorruptError("state is not an object", err)
	}
	for _, m := range migrations {
		if env.Version < m.to {
			fields = m.apply(fields)
		}
	}

	migrated, err := json.Marshal(fields)
	if err != nil {
		return Persisted{}, errors.NewStoreCorruptError("re-encode after migration", err)
	}
	var p Persisted
	if err := json.Unmarshal(migrated, &p); err != nil {
		return Persisted{}, errors.NewStoreCorruptError("state fields", err)
	}
	return p, nil
}

package internal

import (
	"encoding/json"
	"strings"
)

// OpenStore opens a KVStore from a storage location:
//
//	memory                  in-process, lost on exit
//	redis://host:6379/0     Redis (rediss:// for TLS)
//	/path/to/state.db       SQLite file
func OpenStore(location string) (KVStore, error) {
	switch {
	case location == "memory":
		LogDebug("Using in-memory storage")
		return NewMemoryStore(), nil
	case strings.HasPrefix(location, "redis://"), strings.HasPrefix(location, "rediss://"):
		LogDebug("Using redis storage at %s", location)
		return NewRedisStore(location)
	default:
		LogDebug("Using sqlite storage at %s", location)
		return NewSQLiteStore(location)
	}
}

// loadJSON decodes the value stored under key into v. It reports false when the
// key is absent.
func loadJSON(kv KVStore, key string, v interface{}) (bool, error) {
	raw, ok, err := kv.Get(key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, &ParseError{Source: "store", Key: key, Err: err}
	}
	return true, nil
}

func encodeJSON(key string, v interface{}) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", &ParseError{Source: "store", Key: key, Err: err}
	}
	return string(data), nil
}

func saveJSON(kv KVStore, key string, v interface{}) error {
	value, err := encodeJSON(key, v)
	if err != nil {
		return err
	}
	return kv.Set(key, value)
}

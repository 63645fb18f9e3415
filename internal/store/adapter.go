package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// PersistenceError describes a failed read or write against the KV.
// Read-side failures are absorbed by Adapter.Get; write-side failures are returned.
type PersistenceError struct {
	Key string
	Op  string // "load", "decode", "encode", "save"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Adapter stores JSON values under string keys on top of a KV.
type Adapter struct {
	kv  KV
	log logrus.FieldLogger
}

// NewAdapter wraps kv. A nil logger discards warnings.
func NewAdapter(kv KV, log logrus.FieldLogger) *Adapter {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Adapter{kv: kv, log: log}
}

// Get decodes the value under key into dst (a non-nil pointer) and reports
// whether it did. Absent keys, backend errors and unparsable values all
// leave dst untouched and return false so the caller keeps its default.
func (a *Adapter) Get(ctx context.Context, key string, dst any) bool {
	raw, err := a.kv.Load(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false
	}
	if err != nil {
		a.absorb(&PersistenceError{Key: key, Op: "load", Err: err})
		return false
	}

	// Decode into a fresh value so a half-decoded payload never leaks into dst.
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		a.absorb(&PersistenceError{Key: key, Op: "decode", Err: errors.Errorf("destination %T is not a pointer", dst)})
		return false
	}
	fresh := reflect.New(target.Elem().Type())
	if err := json.Unmarshal(raw, fresh.Interface()); err != nil {
		a.absorb(&PersistenceError{Key: key, Op: "decode", Err: err})
		return false
	}
	target.Elem().Set(fresh.Elem())
	return true
}

// Set stores value under key as canonical JSON.
func (a *Adapter) Set(ctx context.Context, key string, value any) error {
	data, err := MarshalCanonical(value)
	if err != nil {
		return &PersistenceError{Key: key, Op: "encode", Err: err}
	}
	if err := a.kv.Save(ctx, key, data); err != nil {
		return &PersistenceError{Key: key, Op: "save", Err: err}
	}
	return nil
}

// Dump returns every stored value keyed by name, in the same shape as a
// browser localStorage export.
func (a *Adapter) Dump(ctx context.Context) (map[string]json.RawMessage, error) {
	keys, err := a.kv.Keys(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "dump")
	}
	out := make(map[string]json.RawMessage, len(keys))
	for _, k := range keys {
		raw, err := a.kv.Load(ctx, k)
		if err != nil {
			return nil, errors.Wrapf(err, "dump %q", k)
		}
		out[k] = json.RawMessage(raw)
	}
	return out, nil
}

// Restore writes every entry of snapshot, re-encoding each value canonically.
// Keys not present in snapshot are left alone. A value that is a JSON string
// holding JSON text (how JSON.stringify(localStorage) exports) is unwrapped.
func (a *Adapter) Restore(ctx context.Context, snapshot map[string]json.RawMessage) error {
	for k, raw := range snapshot {
		if !json.Valid(raw) {
			return &PersistenceError{Key: k, Op: "decode", Err: errors.New("invalid JSON")}
		}
		var inner string
		if json.Unmarshal(raw, &inner) == nil && json.Valid([]byte(inner)) {
			raw = json.RawMessage(inner)
		}
		if err := a.Set(ctx, k, raw); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) absorb(err *PersistenceError) {
	a.log.WithFields(logrus.Fields{
		"key": err.Key,
		"op":  err.Op,
	}).WithError(err.Err).Warn("falling back to default value")
}

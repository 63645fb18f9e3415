package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ID  string `json:"id"`
	Qty int    `json:"qty"`
}

// failingKV fails every call with err.
type failingKV struct{ err error }

func (f failingKV) Load(context.Context, string) ([]byte, error) { return nil, f.err }
func (f failingKV) Save(context.Context, string, []byte) error   { return f.err }
func (f failingKV) Keys(context.Context) ([]string, error)       { return nil, f.err }

func TestAdapter_GetMissingKeepsDefault(t *testing.T) {
	a := NewAdapter(NewMemory(), nil)

	dst := []line{{ID: "default", Qty: 1}}
	ok := a.Get(context.Background(), "hb_cart_items", &dst)

	assert.False(t, ok)
	assert.Equal(t, []line{{ID: "default", Qty: 1}}, dst)
}

func TestAdapter_SetThenGet(t *testing.T) {
	a := NewAdapter(NewMemory(), nil)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "hb_cart_items", []line{{ID: "tea", Qty: 2}}))

	var got []line
	require.True(t, a.Get(ctx, "hb_cart_items", &got))
	assert.Equal(t, []line{{ID: "tea", Qty: 2}}, got)
}

func TestAdapter_SetWritesCanonicalJSON(t *testing.T) {
	m := NewMemory()
	a := NewAdapter(m, nil)
	ctx := context.Background()

	require.NoError(t, a.Set(ctx, "k", map[string]any{"qty": 2, "id": "<tea>"}))

	raw, err := m.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"<tea>","qty":2}`, string(raw))
}

func TestAdapter_GetUnparsableFallsBackAndLogs(t *testing.T) {
	m := NewMemory()
	logger, hook := test.NewNullLogger()
	a := NewAdapter(m, logger)
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, "hb_menu_items", []byte(`{not json`)))

	dst := []line{}
	ok := a.Get(ctx, "hb_menu_items", &dst)

	assert.False(t, ok)
	assert.Empty(t, dst)
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "decode", hook.LastEntry().Data["op"])
}

func TestAdapter_GetWrongShapeLeavesDestinationUntouched(t *testing.T) {
	m := NewMemory()
	a := NewAdapter(m, nil)
	ctx := context.Background()

	// An array whose second element has the wrong type fails part-way through.
	require.NoError(t, m.Save(ctx, "k", []byte(`[{"id":"a","qty":1},{"id":"b","qty":"x"}]`)))

	dst := []line{{ID: "keep", Qty: 9}}
	assert.False(t, a.Get(ctx, "k", &dst))
	assert.Equal(t, []line{{ID: "keep", Qty: 9}}, dst)
}

func TestAdapter_GetBackendErrorFallsBack(t *testing.T) {
	logger, hook := test.NewNullLogger()
	a := NewAdapter(failingKV{err: errors.New("disk on fire")}, logger)

	var dst []line
	assert.False(t, a.Get(context.Background(), "k", &dst))
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "load", hook.LastEntry().Data["op"])
}

func TestAdapter_SetBackendErrorReturned(t *testing.T) {
	cause := errors.New("read-only")
	a := NewAdapter(failingKV{err: cause}, nil)

	err := a.Set(context.Background(), "k", []line{})
	require.Error(t, err)

	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "save", perr.Op)
	assert.Equal(t, "k", perr.Key)
	assert.ErrorIs(t, err, cause)
}

func TestAdapter_DumpRestoreRoundTrip(t *testing.T) {
	src := NewAdapter(NewMemory(), nil)
	ctx := context.Background()
	require.NoError(t, src.Set(ctx, "hb_cart_items", []line{{ID: "tea", Qty: 1}}))
	require.NoError(t, src.Set(ctx, "hb_menu_version", 2))

	dump, err := src.Dump(ctx)
	require.NoError(t, err)
	require.Len(t, dump, 2)

	dstKV := NewMemory()
	dst := NewAdapter(dstKV, nil)
	require.NoError(t, dst.Restore(ctx, dump))

	var got []line
	require.True(t, dst.Get(ctx, "hb_cart_items", &got))
	assert.Equal(t, []line{{ID: "tea", Qty: 1}}, got)
}

func TestAdapter_RestoreUnwrapsLocalStorageStrings(t *testing.T) {
	a := NewAdapter(NewMemory(), nil)
	ctx := context.Background()

	var snapshot map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(`{"hb_cart_items":"[{\"id\":\"tea\",\"qty\":3}]"}`), &snapshot))
	require.NoError(t, a.Restore(ctx, snapshot))

	var got []line
	require.True(t, a.Get(ctx, "hb_cart_items", &got))
	assert.Equal(t, []line{{ID: "tea", Qty: 3}}, got)
}

func TestAdapter_RestoreRejectsInvalidJSON(t *testing.T) {
	a := NewAdapter(NewMemory(), nil)

	err := a.Restore(context.Background(), map[string]json.RawMessage{"k": json.RawMessage(`{oops`)})
	var perr *PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "k", perr.Key)
}

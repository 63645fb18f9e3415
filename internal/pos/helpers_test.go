package pos

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/roach88/tiffin/internal/store"
	"github.com/roach88/tiffin/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testEpoch = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

// flakyKV wraps Memory and fails writes while failSaves is set.
type flakyKV struct {
	*store.Memory
	failSaves bool
	saves     int
}

func newFlakyKV() *flakyKV { return &flakyKV{Memory: store.NewMemory()} }

func (f *flakyKV) Save(ctx context.Context, key string, value []byte) error {
	if f.failSaves {
		return errors.New("disk full")
	}
	f.saves++
	return f.Memory.Save(ctx, key, value)
}

func testOptions() Options {
	return Options{
		Clock:      testutil.NewStepClock(testEpoch, time.Minute),
		IDs:        testutil.NewSequenceGenerator("id"),
		PaymentRef: "images/QRpay.jpg",
	}
}

// openTestApp opens an App over kv with a deterministic clock and ids.
func openTestApp(t *testing.T, kv store.KV) *App {
	t.Helper()
	app, err := Open(context.Background(), kv, testOptions())
	require.NoError(t, err)
	return app
}

// mustItem finds the single menu item named name.
func mustItem(t *testing.T, app *App, name string) MenuItem {
	t.Helper()
	for _, it := range app.Catalog.List("") {
		if it.Name == name {
			return it
		}
	}
	t.Fatalf("menu item %q not found", name)
	return MenuItem{}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

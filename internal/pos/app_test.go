package pos

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/roach88/tiffin/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_SeedsDefaultMenu(t *testing.T) {
	kv := store.NewMemory()
	app := openTestApp(t, kv)
	ctx := context.Background()

	items := app.Catalog.List("")
	require.Len(t, items, 10)
	assert.Equal(t, "id-0001", items[0].ID)
	assert.Equal(t, "Idly", items[0].Name)

	// Seeded menu and version are persisted immediately.
	raw, err := kv.Load(ctx, KeyMenu)
	require.NoError(t, err)
	var stored []MenuItem
	require.NoError(t, json.Unmarshal(raw, &stored))
	assert.Len(t, stored, 10)

	raw, err = kv.Load(ctx, KeyMenuVersion)
	require.NoError(t, err)
	assert.Equal(t, "2", string(raw))
}

func TestOpen_ReopenKeepsIDs(t *testing.T) {
	kv := store.NewMemory()
	first := openTestApp(t, kv)
	second := openTestApp(t, kv)

	a, b := first.Catalog.List(""), second.Catalog.List("")
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
	}
}

func TestOpen_ReseedsWhenStoredMenuUnusable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty array", `[]`},
		{"object", `{"items":[]}`},
		{"garbage", `not json`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kv := store.NewMemory()
			require.NoError(t, kv.Save(context.Background(), KeyMenu, []byte(tt.raw)))

			app := openTestApp(t, kv)
			assert.Equal(t, 10, app.Catalog.Len())
		})
	}
}

func TestOpen_MigratesLegacyMenu(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	// Browser data: numeric prices, stale prices, placeholder images, no version key.
	legacy := `[
		{"id":"a","name":"Poori","price":25,"image":"https://images.unsplash.com/poori"},
		{"id":"b","name":"Coffee","price":15,"image":"./imagesnew/coffee.webp"},
		{"id":"c","name":"Tea","price":12,"image":""},
		{"id":"d","name":"Biryani","price":120.5,"image":"https://placehold.co/400"}
	]`
	require.NoError(t, kv.Save(ctx, KeyMenu, []byte(legacy)))

	app := openTestApp(t, kv)
	items := app.Catalog.List("")
	require.Len(t, items, 4)

	assert.Equal(t, "20", items[0].Price.String())
	assert.Equal(t, ItemImages["Poori"], items[0].Image)

	assert.Equal(t, "20", items[1].Price.String())
	assert.Equal(t, "./imagesnew/coffee.webp", items[1].Image, "real images are kept")

	assert.Equal(t, ItemImages["Tea"], items[2].Image)

	assert.Equal(t, "120.5", items[3].Price.String())
	assert.Equal(t, "https://placehold.co/400", items[3].Image, "no stock image for unknown names")

	raw, err := kv.Load(ctx, KeyMenuVersion)
	require.NoError(t, err)
	assert.Equal(t, "2", string(raw))
}

func TestOpen_MigrationsRunOnce(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Save(ctx, KeyMenu, []byte(`[{"id":"a","name":"Poori","price":25,"image":"p.jpg"}]`)))

	app := openTestApp(t, kv)
	_, err := app.Catalog.Update(ctx, "a", "Poori", dec("22"), "p.jpg")
	require.NoError(t, err)

	reopened := openTestApp(t, kv)
	item, ok := reopened.Catalog.Get("a")
	require.True(t, ok)
	assert.Equal(t, "22", item.Price.String(), "an applied price fix must not re-run")
}

func TestOpen_PartialMigrationResumes(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Save(ctx, KeyMenu, []byte(`[{"id":"a","name":"Pongal","price":35,"image":""}]`)))
	require.NoError(t, kv.Save(ctx, KeyMenuVersion, []byte(`1`)))

	app := openTestApp(t, kv)
	item, _ := app.Catalog.Get("a")
	assert.Equal(t, "35", item.Price.String(), "v1 already applied")
	assert.Equal(t, ItemImages["Pongal"], item.Image, "v2 still runs")
}

func TestOpen_SeedWriteFailure(t *testing.T) {
	kv := newFlakyKV()
	kv.failSaves = true

	_, err := Open(context.Background(), kv, testOptions())
	var perr *store.PersistenceError
	assert.ErrorAs(t, err, &perr)
}

func TestOpen_LegacySalesRecords(t *testing.T) {
	kv := store.NewMemory()
	ctx := context.Background()
	require.NoError(t, kv.Save(ctx, KeySales, []byte(`[{"id":"s1","dt":"2024-04-30T18:45:00.000Z","customer":"Walk-in",
		"items":[{"name":"Tea","price":12,"qty":2}],"subtotal":24,"tax":0,"total":24}]`)))

	app := openTestApp(t, kv)
	records := app.Ledger.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "24", records[0].Total.String())
	assert.Equal(t, 2024, records[0].DT.Year())
}

func TestApp_BackupRestore(t *testing.T) {
	ctx := context.Background()
	src := openTestApp(t, store.NewMemory())
	require.NoError(t, src.Cart.Add(ctx, mustItem(t, src, "Tea").ID))
	_, err := src.Checkout.Press(ctx)
	require.NoError(t, err)
	_, err = src.Checkout.Press(ctx)
	require.NoError(t, err)
	require.NoError(t, src.Cart.Add(ctx, mustItem(t, src, "Vada").ID))

	snapshot, err := src.Backup(ctx)
	require.NoError(t, err)
	assert.Contains(t, snapshot, KeyMenu)
	assert.Contains(t, snapshot, KeySales)

	dst := openTestApp(t, store.NewMemory())
	require.NoError(t, dst.Restore(ctx, snapshot))

	assert.Equal(t, 1, dst.Ledger.Len())
	lines := dst.Cart.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Vada", lines[0].Name)
	assert.Equal(t, src.Catalog.List("")[0].ID, dst.Catalog.List("")[0].ID)
}

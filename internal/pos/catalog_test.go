package pos

import (
	"context"
	"testing"

	"github.com/roach88/tiffin/internal/menufile"
	"github.com/roach88/tiffin/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog_ListEmptyQueryReturnsAllInOrder(t *testing.T) {
	app := openTestApp(t, store.NewMemory())

	items := app.Catalog.List("")
	require.Len(t, items, 10)
	assert.Equal(t, "Idly", items[0].Name)
	assert.Equal(t, "Chappathi", items[9].Name)
}

func TestCatalog_ListCaseInsensitiveSubstring(t *testing.T) {
	app := openTestApp(t, store.NewMemory())

	tests := []struct {
		query string
		want  []string
	}{
		{"tea", []string{"Tea"}},
		{"TEA", []string{"Tea"}},
		{"o", []string{"Dosa", "Poori", "Coffee", "Sweet Bonda", "Pongal"}},
		{"bonda", []string{"Sweet Bonda"}},
		{"biryani", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, it := range app.Catalog.List(tt.query) {
				got = append(got, it.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalog_ListUnicodeFolding(t *testing.T) {
	app := openTestApp(t, store.NewMemory())
	ctx := context.Background()

	_, err := app.Catalog.Create(ctx, "Caf\u00e9 Latte", dec("40"), "")
	require.NoError(t, err)

	// Upper-case query in decomposed form still matches.
	got := app.Catalog.List("CAFE\u0301")
	require.Len(t, got, 1)
	assert.Equal(t, "Caf\u00e9 Latte", got[0].Name)
}

func TestCatalog_ListReturnsCopy(t *testing.T) {
	app := openTestApp(t, store.NewMemory())

	items := app.Catalog.List("")
	items[0].Name = "mutated"

	assert.Equal(t, "Idly", app.Catalog.List("")[0].Name)
}

func TestCatalog_Create(t *testing.T) {
	kv := store.NewMemory()
	app := openTestApp(t, kv)
	ctx := context.Background()

	item, err := app.Catalog.Create(ctx, "  Masala Dosa ", dec("45.50"), " dosa.jpg ")
	require.NoError(t, err)

	assert.Equal(t, "id-0011", item.ID)
	assert.Equal(t, "Masala Dosa", item.Name)
	assert.Equal(t, "45.5", item.Price.String())
	assert.Equal(t, "dosa.jpg", item.Image)
	assert.Equal(t, 11, app.Catalog.Len())

	// Persisted: a fresh App sees it at the end.
	reopened := openTestApp(t, kv)
	items := reopened.Catalog.List("")
	require.Len(t, items, 11)
	assert.Equal(t, item.ID, items[10].ID)
	assert.Equal(t, item.Name, items[10].Name)
	assert.True(t, item.Price.Equal(items[10].Price))
}

func TestCatalog_CreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		input string
		price decimal.Decimal
		field string
	}{
		{"empty name", "", dec("5"), "name"},
		{"blank name", "   ", dec("5"), "name"},
		{"negative price", "Vada", dec("-1"), "price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := openTestApp(t, store.NewMemory())
			before := app.Catalog.List("")

			_, err := app.Catalog.Create(context.Background(), tt.input, tt.price, "")
			require.Error(t, err)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, IsValidation(err))
			assert.Equal(t, before, app.Catalog.List(""))
		})
	}
}

func TestCatalog_CreateZeroPriceAllowed(t *testing.T) {
	app := openTestApp(t, store.NewMemory())
	item, err := app.Catalog.Create(context.Background(), "Water", decimal.Zero, "")
	require.NoError(t, err)
	assert.True(t, item.Price.IsZero())
}

func TestCatalog_UpdatePreservesIDAndPosition(t *testing.T) {
	app := openTestApp(t, store.NewMemory())
	tea := mustItem(t, app, "Tea")

	updated, err := app.Catalog.Update(context.Background(), tea.ID, "Masala Tea", dec("15"), "chai.jpg")
	require.NoError(t, err)
	assert.Equal(t, tea.ID, updated.ID)

	items := app.Catalog.List("")
	assert.Equal(t, updated, items[5])
	assert.Len(t, items, 10)
}

func TestCatalog_UpdateMissingIsNotFound(t *testing.T) {
	app := openTestApp(t, store.NewMemory())

	_, err := app.Catalog.Update(context.Background(), "nope", "Tea", dec("1"), "")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "nope", nf.ID)
	assert.True(t, IsNotFound(err))
}

func TestCatalog_UpdateMissingWinsOverValidation(t *testing.T) {
	app := openTestApp(t, store.NewMemory())

	_, err := app.Catalog.Update(context.Background(), "nope", "", dec("-1"), "")
	assert.True(t, IsNotFound(err))
}

func TestCatalog_UpdateValidation(t *testing.T) {
	app := openTestApp(t, store.NewMemory())
	tea := mustItem(t, app, "Tea")

	_, err := app.Catalog.Update(context.Background(), tea.ID, "Tea", dec("-3"), "")
	assert.True(t, IsValidation(err))
	assert.Equal(t, tea, mustItem(t, app, "Tea"))
}

func TestCatalog_Delete(t *testing.T) {
	kv := store.NewMemory()
	app := openTestApp(t, kv)
	vada := mustItem(t, app, "Vada")

	require.NoError(t, app.Catalog.Delete(context.Background(), vada.ID))

	_, ok := app.Catalog.Get(vada.ID)
	assert.False(t, ok)
	assert.Equal(t, 9, app.Catalog.Len())
	assert.Equal(t, 9, openTestApp(t, kv).Catalog.Len())
}

func TestCatalog_DeleteMissingIsNoOp(t *testing.T) {
	kv := newFlakyKV()
	app := openTestApp(t, kv)
	before := app.Catalog.List("")
	saves := kv.saves

	require.NoError(t, app.Catalog.Delete(context.Background(), "nonexistent"))

	assert.Equal(t, before, app.Catalog.List(""))
	assert.Equal(t, saves, kv.saves, "no write for a no-op delete")
}

func TestCatalog_FailedWriteLeavesStateUnchanged(t *testing.T) {
	kv := newFlakyKV()
	app := openTestApp(t, kv)
	before := app.Catalog.List("")
	tea := mustItem(t, app, "Tea")
	ctx := context.Background()

	kv.failSaves = true

	_, err := app.Catalog.Create(ctx, "Samosa", dec("12"), "")
	require.Error(t, err)
	var perr *store.PersistenceError
	assert.ErrorAs(t, err, &perr)

	_, err = app.Catalog.Update(ctx, tea.ID, "Chai", dec("10"), "")
	require.Error(t, err)

	require.Error(t, app.Catalog.Delete(ctx, tea.ID))

	assert.Equal(t, before, app.Catalog.List(""))
}

func TestCatalog_Import(t *testing.T) {
	app := openTestApp(t, store.NewMemory())
	ctx := context.Background()
	entries := []menufile.Entry{
		{Name: "Samosa", Price: dec("12")},
		{Name: "Lime Juice", Price: dec("15"), Image: "lime.jpg"},
	}

	added, err := app.Catalog.Import(ctx, entries, false)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, 12, app.Catalog.Len())
	assert.Equal(t, "Lime Juice", app.Catalog.List("")[11].Name)

	_, err = app.Catalog.Import(ctx, entries[:1], true)
	require.NoError(t, err)
	items := app.Catalog.List("")
	require.Len(t, items, 1)
	assert.Equal(t, "Samosa", items[0].Name)
}

func TestCatalog_ImportValidatesEverythingFirst(t *testing.T) {
	app := openTestApp(t, store.NewMemory())

	_, err := app.Catalog.Import(context.Background(), []menufile.Entry{
		{Name: "Samosa", Price: dec("12")},
		{Name: " ", Price: dec("1")},
	}, false)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 10, app.Catalog.Len())
}

func TestCatalog_ImportReplaceWithNothingRejected(t *testing.T) {
	app := openTestApp(t, store.NewMemory())

	_, err := app.Catalog.Import(context.Background(), nil, true)
	assert.True(t, IsValidation(err))
	assert.Equal(t, 10, app.Catalog.Len())
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"12", "12", false},
		{" 12.50 ", "12.5", false},
		{"0", "0", false},
		{"-1", "", true},
		{"abc", "", true},
		{"", "", true},
		{"1e2", "100", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePrice(tt.input)
			if tt.wantErr {
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

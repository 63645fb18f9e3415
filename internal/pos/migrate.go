package pos

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// menuMigration rewrites stored menu data once. apply returns the new items
// and whether anything changed.
type menuMigration struct {
	version int
	name    string
	apply   func(items []MenuItem) ([]MenuItem, bool)
}

// menuMigrations must stay sorted by version.
var menuMigrations = []menuMigration{
	{version: 1, name: "price corrections", apply: fixPrices},
	{version: 2, name: "image backfill", apply: backfillImages},
}

func latestMenuVersion() int {
	return menuMigrations[len(menuMigrations)-1].version
}

var correctedPrices = map[string]decimal.Decimal{
	"Poori":  decimal.NewFromInt(20),
	"Pongal": decimal.NewFromInt(30),
	"Coffee": decimal.NewFromInt(20),
}

// ItemImages maps default item names to their stock photo.
var ItemImages = map[string]string{
	"Idly":        "https://upload.wikimedia.org/wikipedia/commons/6/6e/Idli_Sambar.jpg",
	"Dosa":        "https://upload.wikimedia.org/wikipedia/commons/0/0a/Dosa_on_steel_plate.jpg",
	"Puttu":       "https://upload.wikimedia.org/wikipedia/commons/8/8a/Puttu_and_kadala_curry.jpg",
	"Poori":       "https://upload.wikimedia.org/wikipedia/commons/3/3b/Puri_Bhaji.jpg",
	"Coffee":      "https://upload.wikimedia.org/wikipedia/commons/5/58/Filter_coffee_serve.jpg",
	"Tea":         "https://upload.wikimedia.org/wikipedia/commons/7/7e/Indian_masala_chai.jpg",
	"Vada":        "https://upload.wikimedia.org/wikipedia/commons/1/13/Medu_Vada.jpg",
	"Sweet Bonda": "https://upload.wikimedia.org/wikipedia/commons/9/90/Bonda.JPG",
	"Pongal":      "https://upload.wikimedia.org/wikipedia/commons/7/7f/Ven_pongal.jpg",
	"Chappathi":   "https://upload.wikimedia.org/wikipedia/commons/3/3c/Chapati.jpg",
}

func fixPrices(items []MenuItem) ([]MenuItem, bool) {
	changed := false
	out := make([]MenuItem, len(items))
	for i, it := range items {
		if want, ok := correctedPrices[it.Name]; ok && !it.Price.Equal(want) {
			it.Price = want
			changed = true
		}
		out[i] = it
	}
	return out, changed
}

func placeholderImage(image string) bool {
	return image == "" ||
		strings.Contains(image, "images.unsplash.com") ||
		strings.Contains(image, "placehold.co")
}

func backfillImages(items []MenuItem) ([]MenuItem, bool) {
	changed := false
	out := make([]MenuItem, len(items))
	for i, it := range items {
		if url, ok := ItemImages[it.Name]; ok && placeholderImage(it.Image) {
			it.Image = url
			changed = true
		}
		out[i] = it
	}
	return out, changed
}

// migrate applies every menu migration newer than the stored version.
// The menu is written only when a migration changes it; the version is
// written after each step so a crash never re-runs a finished step.
func (c *Catalog) migrate(ctx context.Context) error {
	current := 0
	c.st.Get(ctx, KeyMenuVersion, &current)

	for _, m := range menuMigrations {
		if m.version <= current {
			continue
		}
		next, changed := m.apply(c.items)
		if changed {
			if err := c.commit(ctx, next); err != nil {
				return err
			}
		}
		if err := c.st.Set(ctx, KeyMenuVersion, m.version); err != nil {
			return err
		}
		c.log.WithFields(logrus.Fields{"version": m.version, "migration": m.name, "changed": changed}).Info("menu migration applied")
		current = m.version
	}
	return nil
}

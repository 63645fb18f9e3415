package pos

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/roach88/tiffin/internal/menufile"
	"github.com/roach88/tiffin/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Catalog is the ordered menu.
type Catalog struct {
	items []MenuItem
	st    *store.Adapter
	ids   IDGenerator
	log   logrus.FieldLogger
}

func loadCatalog(ctx context.Context, st *store.Adapter, ids IDGenerator, log logrus.FieldLogger) (*Catalog, error) {
	c := &Catalog{st: st, ids: ids, log: log.WithField("component", "catalog")}

	var items []MenuItem
	if !st.Get(ctx, KeyMenu, &items) || len(items) == 0 {
		if err := c.seed(ctx); err != nil {
			return nil, err
		}
		return c, nil
	}
	c.items = items

	if err := c.migrate(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// seed installs the default menu and marks every data migration as applied.
func (c *Catalog) seed(ctx context.Context) error {
	entries, err := menufile.Defaults()
	if err != nil {
		return errors.Wrap(err, "load default menu")
	}
	items := make([]MenuItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, MenuItem{ID: c.ids.Generate(), Name: e.Name, Price: e.Price, Image: e.Image})
	}
	if err := c.commit(ctx, items); err != nil {
		return err
	}
	if err := c.st.Set(ctx, KeyMenuVersion, latestMenuVersion()); err != nil {
		return err
	}
	c.log.WithField("items", len(items)).Info("seeded default menu")
	return nil
}

// List returns items whose name contains query, ignoring case. An empty
// query returns everything. Order is insertion order.
func (c *Catalog) List(query string) []MenuItem {
	if query == "" {
		return append([]MenuItem(nil), c.items...)
	}
	fold := cases.Fold()
	q := fold.String(norm.NFC.String(query))

	out := []MenuItem{}
	for _, it := range c.items {
		if strings.Contains(fold.String(norm.NFC.String(it.Name)), q) {
			out = append(out, it)
		}
	}
	return out
}

// Get looks up an item by id.
func (c *Catalog) Get(id string) (MenuItem, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	return MenuItem{}, false
}

// Len returns the number of items.
func (c *Catalog) Len() int { return len(c.items) }

// Create appends a new item with a fresh id.
func (c *Catalog) Create(ctx context.Context, name string, price decimal.Decimal, image string) (MenuItem, error) {
	item, err := newItem("", name, price, image)
	if err != nil {
		return MenuItem{}, err
	}
	item.ID = c.ids.Generate()

	next := append(c.clone(), item)
	if err := c.commit(ctx, next); err != nil {
		return MenuItem{}, err
	}
	c.log.WithFields(logrus.Fields{"id": item.ID, "name": item.Name, "price": item.Price.String()}).Debug("menu item created")
	return item, nil
}

// Update replaces an item in place, keeping its id and position.
func (c *Catalog) Update(ctx context.Context, id, name string, price decimal.Decimal, image string) (MenuItem, error) {
	i := c.index(id)
	if i < 0 {
		return MenuItem{}, &NotFoundError{Kind: "menu item", ID: id}
	}
	item, err := newItem(id, name, price, image)
	if err != nil {
		return MenuItem{}, err
	}

	next := c.clone()
	next[i] = item
	if err := c.commit(ctx, next); err != nil {
		return MenuItem{}, err
	}
	c.log.WithFields(logrus.Fields{"id": id, "name": item.Name, "price": item.Price.String()}).Debug("menu item updated")
	return item, nil
}

// Delete removes an item. Deleting a missing id is a no-op. Lines already
// in the cart keep their snapshot.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	i := c.index(id)
	if i < 0 {
		return nil
	}
	next := make([]MenuItem, 0, len(c.items)-1)
	next = append(next, c.items[:i]...)
	next = append(next, c.items[i+1:]...)
	if err := c.commit(ctx, next); err != nil {
		return err
	}
	c.log.WithField("id", id).Debug("menu item deleted")
	return nil
}

// Import adds menu file entries, or replaces the whole menu when replace is
// set. Every entry is validated before anything is written.
func (c *Catalog) Import(ctx context.Context, entries []menufile.Entry, replace bool) ([]MenuItem, error) {
	added := make([]MenuItem, 0, len(entries))
	for _, e := range entries {
		item, err := newItem("", e.Name, e.Price, e.Image)
		if err != nil {
			return nil, err
		}
		item.ID = c.ids.Generate()
		added = append(added, item)
	}

	var next []MenuItem
	if !replace {
		next = c.clone()
	}
	next = append(next, added...)
	if len(next) == 0 {
		return nil, &ValidationError{Field: "menu", Message: "import would leave the menu empty"}
	}
	if err := c.commit(ctx, next); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"added": len(added), "replace": replace}).Info("menu imported")
	return added, nil
}

// ParsePrice parses user input into a price.
func ParsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "price", Message: "price is required"}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "price", Message: "not a number: " + s}
	}
	if d.IsNegative() {
		return decimal.Zero, &ValidationError{Field: "price", Message: "must not be negative"}
	}
	return d, nil
}

func newItem(id, name string, price decimal.Decimal, image string) (MenuItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return MenuItem{}, &ValidationError{Field: "name", Message: "name is required"}
	}
	if price.IsNegative() {
		return MenuItem{}, &ValidationError{Field: "price", Message: "must not be negative"}
	}
	return MenuItem{ID: id, Name: name, Price: price, Image: strings.TrimSpace(image)}, nil
}

// commit persists next and only then makes it current.
func (c *Catalog) commit(ctx context.Context, next []MenuItem) error {
	if err := c.st.Set(ctx, KeyMenu, next); err != nil {
		return errors.Wrap(err, "save menu")
	}
	c.items = next
	return nil
}

func (c *Catalog) index(id string) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) clone() []MenuItem {
	return append([]MenuItem(nil), c.items...)
}

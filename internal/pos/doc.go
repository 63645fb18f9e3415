// Package pos implements the point-of-sale core: menu catalog, cart,
// checkout and sales ledger.
//
// ARCHITECTURE:
//
// App owns one Catalog, Cart, Checkout and Ledger, all built from an
// injected store.KV. There is no package-level state; tests open an App
// over store.NewMemory with a fixed clock and ID generator.
//
// Each component persists under its own key through a store.Adapter:
//
//	hb_menu_items      []MenuItem
//	hb_cart_items      []CartLine
//	hb_sales_records   []SaleRecord
//	hb_checkout_state  checkout session {state, customer}
//	hb_menu_version    catalog data-migration version
//
// Mutations write the full value first and swap in-memory state only after
// the write succeeds, so a failed write leaves the component unchanged.
// Reads that find absent or corrupt data fall back to defaults and log.
//
// Checkout is an explicit two-state machine (Idle, AwaitingPayment) with a
// single transition function, Press. The commit side effect (append the
// sale, reset the session, clear the cart) happens in exactly one place.
//
// Money is shopspring/decimal throughout. Rounding to two places happens
// only where values are formatted for people.
package pos

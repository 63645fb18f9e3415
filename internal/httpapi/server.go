// Package httpapi exposes the till over HTTP for a counter tablet or a
// kitchen display. Requests are served one at a time against a single
// pos.App.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/roach88/tiffin/internal/pos"
	"github.com/roach88/tiffin/internal/report"
)

// Error codes in JSON error bodies.
const (
	CodeBadRequest = "E_BAD_REQUEST"
	CodeValidation = "E_VALIDATION"
	CodeNotFound   = "E_NOT_FOUND"
	CodeEmptyCart  = "E_EMPTY_CART"
	CodeInternal   = "E_INTERNAL"
)

// Options configures sales exports.
type Options struct {
	Business string
	Location *time.Location
}

// Server serves one App.
type Server struct {
	mu   sync.Mutex
	app  *pos.App
	opts Options
	log  logrus.FieldLogger
}

// New creates a Server.
func New(app *pos.App, opts Options, log logrus.FieldLogger) *Server {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Server{app: app, opts: opts, log: log.WithField("component", "http")}
}

const apiPrefix = "/api/v1"

// Router returns the HTTP handler with every route registered.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }).Methods(http.MethodGet)

	// Routes stay on the root router so a wrong method yields 405.
	api := func(path string, h http.HandlerFunc, method string) {
		r.HandleFunc(apiPrefix+path, h).Methods(method)
	}

	api("/menu", s.listMenu, http.MethodGet)
	api("/menu", s.createMenuItem, http.MethodPost)
	api("/menu/{id}", s.updateMenuItem, http.MethodPut)
	api("/menu/{id}", s.deleteMenuItem, http.MethodDelete)

	api("/cart", s.getCart, http.MethodGet)
	api("/cart", s.clearCart, http.MethodDelete)
	api("/cart/items", s.addToCart, http.MethodPost)
	api("/cart/items/{id}", s.changeQuantity, http.MethodPatch)
	api("/cart/items/{id}", s.removeFromCart, http.MethodDelete)

	api("/checkout", s.getCheckout, http.MethodGet)
	api("/checkout/customer", s.setCustomer, http.MethodPut)
	api("/checkout/press", s.press, http.MethodPost)
	api("/checkout/cancel", s.cancel, http.MethodPost)

	api("/sales", s.listSales, http.MethodGet)
	api("/sales/months", s.salesByMonth, http.MethodGet)
	api("/sales/export.csv", s.exportCSV, http.MethodGet)
	api("/sales/export.xlsx", s.exportXLSX, http.MethodGet)

	return s.logMiddleware(s.serialize(r))
}

// serialize runs one request at a time; the domain components are not
// safe for concurrent use.
func (s *Server) serialize(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		h.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) logMiddleware(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h.ServeHTTP(rec, r)
		s.log.WithFields(logrus.Fields{
			"method":     r.Method,
			"url":        r.URL.String(),
			"status":     rec.status,
			"remoteAddr": r.RemoteAddr,
			"duration":   time.Since(start).String(),
		}).Info("handled request")
	})
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		s.log.WithError(err).Error("write response")
	}
}

func (s *Server) writeErrorCode(w http.ResponseWriter, status int, code, message string) {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	s.writeJSON(w, status, body)
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case pos.IsValidation(err):
		s.writeErrorCode(w, http.StatusBadRequest, CodeValidation, err.Error())
	case pos.IsNotFound(err):
		s.writeErrorCode(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, pos.ErrEmptyCart):
		s.writeErrorCode(w, http.StatusConflict, CodeEmptyCart, err.Error())
	default:
		s.log.WithError(err).Error("request failed")
		s.writeErrorCode(w, http.StatusInternalServerError, CodeInternal, err.Error())
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.writeErrorCode(w, http.StatusBadRequest, CodeBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// Menu

type menuItemRequest struct {
	Name  string           `json:"name"`
	Price *decimal.Decimal `json:"price"`
	Image string           `json:"image"`
}

func (req menuItemRequest) price() (decimal.Decimal, error) {
	if req.Price == nil {
		return decimal.Zero, &pos.ValidationError{Field: "price", Message: "price is required"}
	}
	return *req.Price, nil
}

func (s *Server) listMenu(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"items": s.app.Catalog.List(r.URL.Query().Get("q"))})
}

func (s *Server) createMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !s.decode(w, r, &req) {
		return
	}
	price, err := req.price()
	if err != nil {
		s.writeError(w, err)
		return
	}
	item, err := s.app.Catalog.Create(r.Context(), req.Name, price, req.Image)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, item)
}

func (s *Server) updateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req menuItemRequest
	if !s.decode(w, r, &req) {
		return
	}
	price, err := req.price()
	if err != nil {
		s.writeError(w, err)
		return
	}
	item, err := s.app.Catalog.Update(r.Context(), mux.Vars(r)["id"], req.Name, price, req.Image)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, item)
}

func (s *Server) deleteMenuItem(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Catalog.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cart

type cartView struct {
	Lines   []pos.CartLine `json:"lines"`
	Summary pos.Summary    `json:"summary"`
}

func (s *Server) cartView() cartView {
	lines := s.app.Cart.Lines()
	if lines == nil {
		lines = []pos.CartLine{}
	}
	return cartView{Lines: lines, Summary: s.app.Cart.Summary()}
}

func (s *Server) respondCart(w http.ResponseWriter, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.cartView())
}

func (s *Server) getCart(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.cartView())
}

func (s *Server) clearCart(w http.ResponseWriter, r *http.Request) {
	s.respondCart(w, s.app.Cart.Clear(r.Context()))
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		s.writeError(w, &pos.ValidationError{Field: "id", Message: "item id is required"})
		return
	}
	s.respondCart(w, s.app.Cart.Add(r.Context(), req.ID))
}

func (s *Server) changeQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Delta int `json:"delta"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	s.respondCart(w, s.app.Cart.SetQuantity(r.Context(), mux.Vars(r)["id"], req.Delta))
}

func (s *Server) removeFromCart(w http.ResponseWriter, r *http.Request) {
	s.respondCart(w, s.app.Cart.Remove(r.Context(), mux.Vars(r)["id"]))
}

// Checkout

type checkoutView struct {
	State    pos.State `json:"state"`
	Customer string    `json:"customer"`
	Draft    pos.Draft `json:"draft"`
}

func (s *Server) checkoutView() checkoutView {
	return checkoutView{
		State:    s.app.Checkout.State(),
		Customer: s.app.Checkout.Customer(),
		Draft:    s.app.Checkout.Draft(),
	}
}

func (s *Server) getCheckout(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.checkoutView())
}

func (s *Server) setCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	if err := s.app.Checkout.SetCustomer(r.Context(), req.Name); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.checkoutView())
}

func (s *Server) press(w http.ResponseWriter, r *http.Request) {
	tr, err := s.app.Checkout.Press(r.Context())
	if err != nil && tr.Sale == nil {
		s.writeError(w, err)
		return
	}
	if err != nil {
		// The sale is recorded; only the reset failed.
		s.log.WithError(err).Warn("checkout reset failed")
	}
	s.writeJSON(w, http.StatusOK, tr)
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Checkout.Cancel(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.checkoutView())
}

// Sales

func (s *Server) monthRecords(w http.ResponseWriter, r *http.Request) (string, []pos.SaleRecord, bool) {
	month := r.URL.Query().Get("month")
	if err := report.ValidateMonth(month); err != nil {
		s.writeError(w, err)
		return "", nil, false
	}
	return month, report.FilterByMonth(s.app.Ledger.Records(), month, s.opts.Location), true
}

func (s *Server) listSales(w http.ResponseWriter, r *http.Request) {
	month, records, ok := s.monthRecords(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"month": month,
		"sales": records,
		"count": len(records),
		"total": report.Total(records),
	})
}

func (s *Server) salesByMonth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"months": report.ByMonth(s.app.Ledger.Records(), s.opts.Location)})
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	month, records, ok := s.monthRecords(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(s.opts.Business, month)+`"`)
	if _, err := w.Write([]byte(report.ToCSV(records, s.opts.Location))); err != nil {
		s.log.WithError(err).Error("write csv export")
	}
}

func (s *Server) exportXLSX(w http.ResponseWriter, r *http.Request) {
	month, records, ok := s.monthRecords(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.XLSXFilename(s.opts.Business, month)+`"`)
	if err := report.WriteXLSX(w, records, s.opts.Location); err != nil {
		s.log.WithError(err).Error("write xlsx export")
	}
}

package pos

import (
	"context"

	"github.com/pkg/errors"
	"github.com/roach88/tiffin/internal/store"
	"github.com/sirupsen/logrus"
)

// Ledger is the append-only list of completed sales.
type Ledger struct {
	records []SaleRecord
	st      *store.Adapter
	log     logrus.FieldLogger
}

func loadLedger(ctx context.Context, st *store.Adapter, log logrus.FieldLogger) *Ledger {
	l := &Ledger{st: st, log: log.WithField("component", "ledger")}
	st.Get(ctx, KeySales, &l.records)
	return l
}

// Append records a sale. The record is persisted before it becomes visible.
func (l *Ledger) Append(ctx context.Context, rec SaleRecord) error {
	next := make([]SaleRecord, 0, len(l.records)+1)
	next = append(next, l.records...)
	next = append(next, rec)
	if err := l.st.Set(ctx, KeySales, next); err != nil {
		return errors.Wrap(err, "save sales")
	}
	l.records = next
	l.log.WithFields(logrus.Fields{"id": rec.ID, "total": rec.Total.String(), "count": len(next)}).Debug("sale recorded")
	return nil
}

// Records returns every sale in the order it was recorded.
func (l *Ledger) Records() []SaleRecord {
	return append([]SaleRecord(nil), l.records...)
}

// Len returns the number of recorded sales.
func (l *Ledger) Len() int { return len(l.records) }

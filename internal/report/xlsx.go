package report

import (
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/roach88/tiffin/internal/pos"
	"github.com/tealeg/xlsx"
)

// SheetName is the worksheet holding the sales rows.
const SheetName = "Sales"

// XLSXFilename returns "<business-slug>-sales[-<month>].xlsx".
func XLSXFilename(business, month string) string {
	return exportName(business, month) + ".xlsx"
}

// WriteXLSX writes the same rows as ToCSV as an Excel workbook. Money
// cells are numeric with a two-decimal format; a final row holds the total.
func WriteXLSX(w io.Writer, records []pos.SaleRecord, loc *time.Location) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return errors.Wrap(err, "add sheet")
	}

	headerRow := sheet.AddRow()
	for _, h := range Header {
		headerRow.AddCell().SetString(h)
	}

	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(r.DT.In(location(loc)).Format(TimeLayout))
		row.AddCell().SetString(r.Customer)
		row.AddCell().SetString(ItemsString(r.Items))
		row.AddCell().SetFloatWithFormat(r.Subtotal.InexactFloat64(), "0.00")
		row.AddCell().SetFloatWithFormat(r.Tax.InexactFloat64(), "0.00")
		row.AddCell().SetFloatWithFormat(r.Total.InexactFloat64(), "0.00")
	}

	totalRow := sheet.AddRow()
	totalRow.AddCell().SetString("Total")
	for i := 0; i < 4; i++ {
		totalRow.AddCell()
	}
	totalRow.AddCell().SetFloatWithFormat(Total(records).InexactFloat64(), "0.00")

	if err := file.Write(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

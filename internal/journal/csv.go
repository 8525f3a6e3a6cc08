package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ponmo-books/ponmo/internal/model"
)

// Header is the CSV header of a journal export.
const Header = "entry_id,date,kind,status,reference,description,customer_id,vendor_id,account_code,debit,credit"

const (
	numFields     = 11
	dateFormat    = "2006-01-02"
	colEntryID    = 0
	colDate       = 1
	colKind       = 2
	colStatus     = 3
	colRef        = 4
	colDesc       = 5
	colCustomerID = 6
	colVendorID   = 7
	colAccount    = 8
	colDebit      = 9
	colCredit     = 10
)

// WriteEntries writes entries as CSV, one row per line.
func WriteEntries(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 1
	for _, e := range entries {
		for i := range e.Lines {
			row++
			if err := cw.Write(MarshalLine(e, i)); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalLine converts line i of an entry to a CSV row. Zero amounts are
// left empty so each row shows a single side.
func MarshalLine(e model.JournalEntry, i int) []string {
	l := e.Lines[i]
	row := make([]string, numFields)
	row[colEntryID] = e.ID
	row[colDate] = e.Date.Format(dateFormat)
	row[colKind] = string(e.Kind)
	row[colStatus] = string(e.Status)
	row[colRef] = e.Reference
	row[colDesc] = e.Description
	row[colCustomerID] = e.CustomerID
	row[colVendorID] = e.VendorID
	row[colAccount] = l.AccountCode
	if !l.Debit.IsZero() {
		row[colDebit] = l.Debit.StringFixed(2)
	}
	if !l.Credit.IsZero() {
		row[colCredit] = l.Credit.StringFixed(2)
	}
	return row
}

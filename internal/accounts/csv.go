package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ponmo-books/ponmo/internal/model"
)

const (
	numFields   = 6
	colCode     = 0
	colName     = 1
	colType     = 2
	colCategory = 3
	colContra   = 4
	colDesc     = 5
)

// WriteAccounts writes the chart as chart-of-accounts.csv.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"code", "name", "type", "category", "contra", "description"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colCategory] = string(acct.Category)
	row[colContra] = strconv.FormatBool(acct.Contra)
	row[colDesc] = acct.Description
	return row
}

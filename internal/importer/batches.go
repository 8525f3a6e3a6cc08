package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ponmo-books/ponmo/internal/accounting"
	"github.com/ponmo-books/ponmo/internal/model"
)

// BatchParser reads the inventory service's batch export:
//
//	batch_id,date,supplier,vendor_id,pieces,total_cost,payment_method
type BatchParser struct{}

// BatchHeader is the expected header row.
const BatchHeader = "batch_id,date,supplier,vendor_id,pieces,total_cost,payment_method"

const (
	batchDateFormat = "2006-01-02"
	batchNumFields  = 7
	batchColID      = 0
	batchColDate    = 1
	batchColSupp    = 2
	batchColVendor  = 3
	batchColPieces  = 4
	batchColCost    = 5
	batchColMethod  = 6
)

// Format returns the parser name.
func (p *BatchParser) Format() string { return "batches" }

// Parse reads a batch CSV. An empty payment method means on account.
func (p *BatchParser) Parse(r io.Reader) ([]accounting.Batch, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = batchNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading batch CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); got != BatchHeader {
		return nil, fmt.Errorf("unexpected header %q", got)
	}

	var batches []accounting.Batch
	for i, rec := range records[1:] {
		b, err := parseBatchRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

func parseBatchRow(rec []string) (accounting.Batch, error) {
	if rec[batchColID] == "" {
		return accounting.Batch{}, fmt.Errorf("missing batch_id")
	}
	date, err := time.Parse(batchDateFormat, rec[batchColDate])
	if err != nil {
		return accounting.Batch{}, fmt.Errorf("parsing date %q: %w", rec[batchColDate], err)
	}
	pieces, err := strconv.Atoi(rec[batchColPieces])
	if err != nil {
		return accounting.Batch{}, fmt.Errorf("parsing pieces %q: %w", rec[batchColPieces], err)
	}
	cost, err := decimal.NewFromString(rec[batchColCost])
	if err != nil {
		return accounting.Batch{}, fmt.Errorf("parsing total_cost %q: %w", rec[batchColCost], err)
	}
	if !cost.IsPositive() {
		return accounting.Batch{}, fmt.Errorf("total_cost %s must be positive", cost)
	}

	return accounting.Batch{
		ID:        rec[batchColID],
		Supplier:  rec[batchColSupp],
		Date:      date,
		TotalCost: cost,
		Pieces:    pieces,
		Method:    model.PaymentMethod(rec[batchColMethod]),
		VendorID:  rec[batchColVendor],
	}, nil
}

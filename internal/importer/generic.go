package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
)

// GenericParser reads CSVs with a header naming date, description and amount
// columns, plus optional category and reference. Column order is free.
type GenericParser struct {
	// Convention is how the file signs amounts.
	Convention model.SignConvention
}

const genericDateFormat = "2006-01-02"

// Format returns the parser name.
func (p *GenericParser) Format() string { return "generic" }

// Parse reads the CSV and normalizes amounts into the internal convention.
func (p *GenericParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading generic CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	cols, err := readColumns(records[0], "date", "description", "amount")
	if err != nil {
		return nil, err
	}

	var txns []model.Transaction
	for i, rec := range records[1:] {
		txn, err := p.parseRow(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func (p *GenericParser) parseRow(rec []string, cols columns) (model.Transaction, error) {
	date, err := time.Parse(genericDateFormat, cols.get(rec, "date"))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", cols.get(rec, "date"), err)
	}
	amount, err := decimal.NewFromString(amountText(cols.get(rec, "amount")))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", cols.get(rec, "amount"), err)
	}

	return model.Transaction{
		Date:        date,
		Description: cols.get(rec, "description"),
		Amount:      p.Convention.Normalize(amount),
		Category:    cols.get(rec, "category"),
		Reference:   cols.get(rec, "reference"),
	}, nil
}

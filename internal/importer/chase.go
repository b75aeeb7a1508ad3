package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
)

// ChaseParser reads Chase checking exports. Chase signs debits negative,
// which is already the internal convention. Exports differ in trailing
// columns, so fields are found by header.
type ChaseParser struct{}

const (
	chaseDateFormat = "01/02/2006"
	chaseDate       = "posting date"
	chaseDesc       = "description"
	chaseAmount     = "amount"
	chaseRefPrefix  = 10
)

// Format returns the parser name.
func (p *ChaseParser) Format() string { return "chase" }

// Parse reads a Chase export.
func (p *ChaseParser) Parse(r io.Reader) ([]model.Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading chase header: %w", err)
	}
	cols, err := readColumns(header, chaseDate, chaseDesc, chaseAmount)
	if err != nil {
		return nil, err
	}

	var txns []model.Transaction
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		txn, err := chaseTransaction(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		txns = append(txns, txn)
	}
	return txns, nil
}

func chaseTransaction(rec []string, cols columns) (model.Transaction, error) {
	rawDate := cols.get(rec, chaseDate)
	date, err := time.Parse(chaseDateFormat, rawDate)
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing date %q: %w", rawDate, err)
	}
	rawAmount := cols.get(rec, chaseAmount)
	amount, err := decimal.NewFromString(amountText(rawAmount))
	if err != nil {
		return model.Transaction{}, fmt.Errorf("parsing amount %q: %w", rawAmount, err)
	}

	desc := cols.get(rec, chaseDesc)
	return model.Transaction{
		Date:        date,
		Description: desc,
		Amount:      amount,
		Reference:   chaseReference(date, desc, amount),
	}, nil
}

// chaseReference identifies a Chase row for de-duplication across
// overlapping exports, e.g. chase_20250103_GITHUBPROS_400.
func chaseReference(date time.Time, desc string, amount decimal.Decimal) string {
	var b strings.Builder
	for _, r := range desc {
		if b.Len() == chaseRefPrefix {
			break
		}
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cents := amount.Abs().Shift(2).Round(0).IntPart()
	return fmt.Sprintf("chase_%s_%s_%d", date.Format("20060102"), b.String(), cents)
}

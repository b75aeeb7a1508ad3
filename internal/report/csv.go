// Package report writes forecasts as CSV files and renders forecast, recurring
// and pattern summaries as terminal tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/cashflow/internal/model"
)

// Header is the CSV header for forecast files.
const Header = "date,income,expenses,net,income_min,income_max,expense_min,expense_max,balance"

const (
	numFields     = 9
	dateFormat    = "2006-01-02"
	colDate       = 0
	colIncome     = 1
	colExpenses   = 2
	colNet        = 3
	colIncomeMin  = 4
	colIncomeMax  = 5
	colExpenseMin = 6
	colExpenseMax = 7
	colBalance    = 8
)

// ReadForecast reads all days from a forecast CSV reader.
func ReadForecast(r io.Reader) ([]model.DailyForecast, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading forecast CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var days []model.DailyForecast
	for i, rec := range records[1:] {
		d, err := UnmarshalDay(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		days = append(days, d)
	}
	return days, nil
}

// WriteForecast writes days to w, including the header.
func WriteForecast(w io.Writer, days []model.DailyForecast) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, d := range days {
		if err := cw.Write(MarshalDay(d)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName returns the forecast file name for entity generated on today.
func FileName(entity string, today time.Time) string {
	return fmt.Sprintf("%s-%s.csv", entity, today.Format(dateFormat))
}

// WriteFile writes days to path, creating parent directories.
func WriteFile(path string, days []model.DailyForecast) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := WriteForecast(f, days); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// MarshalDay converts a DailyForecast to a CSV row.
func MarshalDay(d model.DailyForecast) []string {
	row := make([]string, numFields)
	row[colDate] = d.Date.Format(dateFormat)
	row[colIncome] = d.Income.StringFixed(2)
	row[colExpenses] = d.Expenses.StringFixed(2)
	row[colNet] = d.Net.StringFixed(2)
	row[colIncomeMin] = d.IncomeRange.Min.StringFixed(2)
	row[colIncomeMax] = d.IncomeRange.Max.StringFixed(2)
	row[colExpenseMin] = d.ExpenseRange.Min.StringFixed(2)
	row[colExpenseMax] = d.ExpenseRange.Max.StringFixed(2)
	row[colBalance] = d.Balance.StringFixed(2)
	return row
}

// UnmarshalDay converts a CSV row to a DailyForecast.
func UnmarshalDay(record []string) (model.DailyForecast, error) {
	if len(record) != numFields {
		return model.DailyForecast{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.DailyForecast{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amounts := make([]decimal.Decimal, numFields)
	names := strings.Split(Header, ",")
	for i := colIncome; i < numFields; i++ {
		amounts[i], err = decimal.NewFromString(record[i])
		if err != nil {
			return model.DailyForecast{}, fmt.Errorf("parsing %s %q: %w", names[i], record[i], err)
		}
	}

	return model.DailyForecast{
		Date:         date,
		Income:       amounts[colIncome],
		Expenses:     amounts[colExpenses],
		Net:          amounts[colNet],
		IncomeRange:  model.Range{Min: amounts[colIncomeMin], Max: amounts[colIncomeMax]},
		ExpenseRange: model.Range{Min: amounts[colExpenseMin], Max: amounts[colExpenseMax]},
		Balance:      amounts[colBalance],
	}, nil
}

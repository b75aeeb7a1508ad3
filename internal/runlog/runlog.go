// Package runlog keeps an append-only CSV audit trail of forecast runs next to
// the forecast files they produced.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FileName is the run log inside a forecast output directory.
const FileName = "runs.csv"

// Header is the CSV header for runs.csv.
const Header = "timestamp,entity,run_id,today,horizon_days,end_balance,lowest_balance,shortfall,file"

const (
	numFields     = 9
	colTimestamp  = 0
	colEntity     = 1
	colRunID      = 2
	colToday      = 3
	colHorizon    = 4
	colEndBalance = 5
	colLowest     = 6
	colShortfall  = 7
	colFile       = 8

	dateFormat = "2006-01-02"
)

// Entry is one forecast run.
type Entry struct {
	Timestamp     time.Time
	Entity        string
	RunID         string
	Today         time.Time
	HorizonDays   int
	EndBalance    decimal.Decimal
	LowestBalance decimal.Decimal
	Shortfall     *time.Time // first day the balance goes negative, nil if none
	File          string     // forecast CSV, relative to the log's directory
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colEntity] = e.Entity
	row[colRunID] = e.RunID
	row[colToday] = e.Today.Format(dateFormat)
	row[colHorizon] = strconv.Itoa(e.HorizonDays)
	row[colEndBalance] = e.EndBalance.StringFixed(2)
	row[colLowest] = e.LowestBalance.StringFixed(2)
	if e.Shortfall != nil {
		row[colShortfall] = e.Shortfall.Format(dateFormat)
	}
	row[colFile] = e.File
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	today, err := time.Parse(dateFormat, record[colToday])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing today %q: %w", record[colToday], err)
	}
	horizon, err := strconv.Atoi(record[colHorizon])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing horizon %q: %w", record[colHorizon], err)
	}
	end, err := decimal.NewFromString(record[colEndBalance])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing end balance %q: %w", record[colEndBalance], err)
	}
	lowest, err := decimal.NewFromString(record[colLowest])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing lowest balance %q: %w", record[colLowest], err)
	}

	e := Entry{
		Timestamp:     ts,
		Entity:        record[colEntity],
		RunID:         record[colRunID],
		Today:         today,
		HorizonDays:   horizon,
		EndBalance:    end,
		LowestBalance: lowest,
		File:          record[colFile],
	}
	if s := record[colShortfall]; s != "" {
		d, err := time.Parse(dateFormat, s)
		if err != nil {
			return Entry{}, fmt.Errorf("parsing shortfall %q: %w", s, err)
		}
		e.Shortfall = &d
	}
	return e, nil
}

// Append writes entries to <dir>/runs.csv, creating the file and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/runs.csv.
// Returns an empty slice if the file does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

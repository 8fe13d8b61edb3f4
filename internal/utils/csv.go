package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"quantlab/internal/domain"
)

// WriteBarsToCSV writes a bar series to a CSV file with a header row.
func WriteBarsToCSV(bars []domain.Bar, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"time", "symbol", "interval", "open", "high", "low", "close", "adj_close", "volume"})

	for _, b := range bars {
		writer.Write([]string{
			b.Time.UTC().Format(time.RFC3339),
			b.Symbol,
			string(b.Interval),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatFloat(b.AdjClose, 'f', -1, 64),
			strconv.FormatFloat(b.Volume, 'f', -1, 64),
		})
	}
	return writer.Error()
}

// ReadBarsFromCSV reads a bar series back from the format WriteBarsToCSV
// produces. Rows are returned sorted by time ascending.
func ReadBarsFromCSV(filename string) ([]domain.Bar, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows in %s", filename)
	}

	bars := make([]domain.Bar, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 9 {
			return nil, fmt.Errorf("row %d: expected 9 fields, got %d", i+2, len(rec))
		}
		ts, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing time %q: %w", i+2, rec[0], err)
		}
		vals := make([]float64, 6)
		for j, field := range rec[3:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: parsing field %q: %w", i+2, field, err)
			}
			vals[j] = v
		}
		bars = append(bars, domain.Bar{
			Time:     ts.UTC(),
			Symbol:   rec[1],
			Interval: domain.Interval(rec[2]),
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			AdjClose: vals[4],
			Volume:   vals[5],
		})
	}
	domain.Series(bars).Sort()
	return bars, nil
}

// ReadTradesFromCSV reads trades back from the format WriteTradesToCSV
// produces.
func ReadTradesFromCSV(filename string) ([]*domain.Trade, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows in %s", filename)
	}

	trades := make([]*domain.Trade, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != 9 {
			return nil, fmt.Errorf("row %d: expected 9 fields, got %d", i+2, len(rec))
		}
		entryTime, err := time.Parse(time.RFC3339, rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing entry time %q: %w", i+2, rec[0], err)
		}
		exitTime, err := time.Parse(time.RFC3339, rec[1])
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing exit time %q: %w", i+2, rec[1], err)
		}
		vals := make([]float64, 5)
		for j, field := range rec[3:8] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: parsing field %q: %w", i+2, field, err)
			}
			vals[j] = v
		}
		trades = append(trades, &domain.Trade{
			ID:          int64(i + 1),
			Symbol:      rec[2],
			EntryTime:   entryTime.UTC(),
			ExitTime:    exitTime.UTC(),
			EntryPrice:  vals[0],
			ExitPrice:   vals[1],
			Quantity:    vals[2],
			Commission:  vals[3],
			PNL:         vals[4],
			CloseReason: domain.CloseReason(rec[8]),
		})
	}
	return trades, nil
}

// WriteTradesToCSV writes backtest trades to a CSV file for inspection.
func WriteTradesToCSV(trades []*domain.Trade, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"entry_time", "exit_time", "symbol", "entry_price", "exit_price", "quantity", "commission", "pnl", "close_reason"})

	for _, tr := range trades {
		writer.Write([]string{
			tr.EntryTime.UTC().Format(time.RFC3339),
			tr.ExitTime.UTC().Format(time.RFC3339),
			tr.Symbol,
			strconv.FormatFloat(tr.EntryPrice, 'f', -1, 64),
			strconv.FormatFloat(tr.ExitPrice, 'f', -1, 64),
			strconv.FormatFloat(tr.Quantity, 'f', -1, 64),
			strconv.FormatFloat(tr.Commission, 'f', -1, 64),
			strconv.FormatFloat(tr.PNL, 'f', -1, 64),
			string(tr.CloseReason),
		})
	}
	return writer.Error()
}

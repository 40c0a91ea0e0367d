package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/evdnx/gospot/types"
)

// LoadCSV reads bars from a file. See ReadCSV for the layout.
func LoadCSV(path string) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses exchange kline rows:
//
//	open_time,open,high,low,close,volume[,close_time,...]
//
// Times are Unix milliseconds. A non-numeric first row is treated as a
// header. Extra columns are ignored. The result is validated.
func ReadCSV(r io.Reader) ([]types.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var bars []types.Bar
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if len(rec) < 6 {
			return nil, fmt.Errorf("csv line %d: want at least 6 columns, got %d", line, len(rec))
		}
		if line == 1 && !numeric(rec[0]) {
			continue
		}
		b, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		bars = append(bars, b)
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func parseRow(rec []string) (types.Bar, error) {
	var b types.Bar
	var err error
	if b.OpenTime, err = strconv.ParseInt(clean(rec[0]), 10, 64); err != nil {
		return b, fmt.Errorf("open_time: %w", err)
	}
	dst := []*float64{&b.Open, &b.High, &b.Low, &b.Close, &b.Volume}
	for i, p := range dst {
		if *p, err = strconv.ParseFloat(clean(rec[i+1]), 64); err != nil {
			return b, fmt.Errorf("column %d: %w", i+2, err)
		}
	}
	if len(rec) > 6 && clean(rec[6]) != "" {
		if b.CloseTime, err = strconv.ParseInt(clean(rec[6]), 10, 64); err != nil {
			return b, fmt.Errorf("close_time: %w", err)
		}
	}
	return b, nil
}

func clean(s string) string { return strings.TrimSpace(strings.Trim(s, `"`)) }

func numeric(s string) bool {
	_, err := strconv.ParseFloat(clean(s), 64)
	return err == nil
}

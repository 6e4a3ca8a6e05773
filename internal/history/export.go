package history

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/xuri/excelize/v2"

	"marketwatch/internal/market"
)

var csvHeader = []string{"timestamp", "avg_unit_price", "min_unit_price", "avg_bottom20_price", "total_listings"}

// Downsample keeps at most max points, evenly spaced and always including both ends.
func Downsample(points []market.PricePoint, max int) []market.PricePoint {
	if max <= 0 || len(points) <= max {
		return points
	}
	if max == 1 {
		return points[len(points)-1:]
	}

	result := make([]market.PricePoint, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(points) {
			idx = len(points) - 1
		}
		result = append(result, points[idx])
	}
	return result
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatBottom(p *int64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatInt(*p, 10)
}

// WriteCSV writes the series to path.
func WriteCSV(path string, points []market.PricePoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range points {
		record := []string{
			formatTimestamp(p.Timestamp),
			strconv.FormatInt(p.Avg, 10),
			strconv.FormatInt(p.Min, 10),
			formatBottom(p.AvgBottom20),
			strconv.Itoa(p.TotalListings),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCSV parses a file in the WriteCSV layout. Empty timestamp and bottom-20 cells are allowed.
func ReadCSV(path string) ([]market.PricePoint, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	points := make([]market.PricePoint, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) < len(csvHeader) {
			return nil, fmt.Errorf("line %d: expected %d columns, got %d", line, len(csvHeader), len(rec))
		}
		var p market.PricePoint
		if rec[0] != "" {
			ts, err := time.Parse(time.RFC3339, rec[0])
			if err != nil {
				return nil, fmt.Errorf("line %d: timestamp: %w", line, err)
			}
			p.Timestamp = ts
		}
		if p.Avg, err = strconv.ParseInt(rec[1], 10, 64); err != nil {
			return nil, fmt.Errorf("line %d: avg: %w", line, err)
		}
		if p.Min, err = strconv.ParseInt(rec[2], 10, 64); err != nil {
			return nil, fmt.Errorf("line %d: min: %w", line, err)
		}
		if rec[3] != "" {
			v, err := strconv.ParseInt(rec[3], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: avg_bottom20: %w", line, err)
			}
			p.AvgBottom20 = &v
		}
		if p.TotalListings, err = strconv.Atoi(rec[4]); err != nil {
			return nil, fmt.Errorf("line %d: total_listings: %w", line, err)
		}
		points = append(points, p)
	}
	return points, nil
}

// WriteXLSX writes the series into a single-sheet workbook.
func WriteXLSX(path, itemName string, points []market.PricePoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "History"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, "A1", itemName); err != nil {
		return err
	}

	for col, h := range csvHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 3)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, p := range points {
		row := i + 4
		values := []any{formatTimestamp(p.Timestamp), p.Avg, p.Min, nil, p.TotalListings}
		if p.AvgBottom20 != nil {
			values[3] = *p.AvgBottom20
		}
		for col, v := range values {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	if err := f.SetColWidth(sheet, "A", "E", 22); err != nil {
		return err
	}

	return f.SaveAs(path)
}

// WritePNG renders min, bottom-20% and overall average as a time chart. Points without a
// timestamp cannot be placed on the axis and are skipped.
func WritePNG(path, itemName string, points []market.PricePoint) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, 0, len(points))
	avg := make([]float64, 0, len(points))
	low := make([]float64, 0, len(points))
	bottom := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Timestamp.IsZero() {
			continue
		}
		x = append(x, p.Timestamp)
		avg = append(avg, float64(p.Avg))
		low = append(low, float64(p.Min))
		if p.AvgBottom20 != nil {
			bottom = append(bottom, float64(*p.AvgBottom20))
		} else {
			bottom = append(bottom, float64(p.Min))
		}
	}
	if len(x) < 2 {
		return fmt.Errorf("%w: at least two timestamped points are needed for a chart", market.ErrNoData)
	}

	priceFormatter := func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return market.FormatThousands(int64(f))
		}
		return ""
	}
	graph := chart.Chart{
		Title:  itemName,
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name:           "Unit price (Yang)",
			ValueFormatter: priceFormatter,
		},
		Series: []chart.Series{
			chart.TimeSeries{Name: "Min", XValues: x, YValues: low},
			chart.TimeSeries{Name: "Ø Bottom 20%", XValues: x, YValues: bottom},
			chart.TimeSeries{Name: "Ø All", XValues: x, YValues: avg},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Package snapshot reads inventory snapshot exports (CSV or XLSX) into
// domain.InventoryRecord rows.
package snapshot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/autoreplenish/internal/domain"
	"golang.org/x/sync/errgroup"
)

// DateLayout is the snapshot date prefix expected at the start of file names.
const DateLayout = "20060102"

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// columns holds the header index of every known field, -1 when absent.
type columns struct {
	productID   int
	productName int
	category    int
	storeID     int
	storeName   int
	avgSales    int
	stock       int
	minStock    int
}

func mapColumns(header []string) (columns, error) {
	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	c := columns{
		productID:   colIndex("product_id", "sku", "product code"),
		productName: colIndex("product_name", "name", "nama", "product"),
		category:    colIndex("category", "kategori", "product category"),
		storeID:     colIndex("store_id", "store code", "shop_id"),
		storeName:   colIndex("store_name", "store", "toko", "shop"),
		avgSales:    colIndex("avg_sales_per_day", "avg daily sales", "daily_sales", "avg_sales"),
		stock:       colIndex("current_stock", "stock", "stok"),
		minStock:    colIndex("min_stock", "minimum stock", "min. stock"),
	}
	if c.productID < 0 {
		return c, fmt.Errorf("snapshot header has no product id column")
	}
	if c.storeID < 0 && c.storeName < 0 {
		return c, fmt.Errorf("snapshot header has no store column")
	}
	return c, nil
}

// normalizeNumber rewrites a number written with either "1,250.5" or
// "1.250,5" grouping into plain "1250.5". When both separators appear the
// last one is the decimal mark. A lone separator is decimal; a repeated one
// groups thousands.
func normalizeNumber(v string) string {
	comma := strings.LastIndex(v, ",")
	dot := strings.LastIndex(v, ".")

	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			v = strings.ReplaceAll(v, ".", "")
			return strings.Replace(v, ",", ".", 1)
		}
		return strings.ReplaceAll(v, ",", "")
	case comma >= 0:
		if strings.Count(v, ",") > 1 {
			return strings.ReplaceAll(v, ",", "")
		}
		return strings.Replace(v, ",", ".", 1)
	case dot >= 0 && strings.Count(v, ".") > 1:
		return strings.ReplaceAll(v, ".", "")
	}
	return v
}

// toRecord converts one data row. It returns false for rows without a product
// or store identity. Numeric fields that are missing or unparsable become 0.
func (c columns) toRecord(record []string, date time.Time) (domain.InventoryRecord, bool) {
	get := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	parseFloat := func(idx int) float64 {
		v := get(idx)
		if v == "" {
			return 0
		}
		f, err := strconv.ParseFloat(normalizeNumber(v), 64)
		if err != nil {
			return 0
		}
		return f
	}

	row := domain.InventoryRecord{
		SnapshotDate:   date,
		ProductID:      get(c.productID),
		ProductName:    get(c.productName),
		Category:       get(c.category),
		StoreID:        get(c.storeID),
		StoreName:      get(c.storeName),
		AvgSalesPerDay: parseFloat(c.avgSales),
		CurrentStock:   parseFloat(c.stock),
		MinStock:       parseFloat(c.minStock),
	}
	if row.StoreID == "" {
		row.StoreID = row.StoreName
	}
	if row.ProductName == "" {
		row.ProductName = row.ProductID
	}
	if row.StoreName == "" {
		row.StoreName = row.StoreID
	}

	return row, row.ProductID != "" && row.StoreID != ""
}

// Read parses a CSV snapshot. date is stamped on every row.
func Read(r io.Reader, date time.Time) ([]domain.InventoryRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read snapshot header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	rows := make([]domain.InventoryRecord, 0)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot row: %w", err)
		}

		if row, ok := cols.toRecord(record, date); ok {
			rows = append(rows, row)
		}
	}

	return rows, nil
}

// SnapshotDate extracts the YYYYMMDD prefix of a file name. Files without a
// date prefix get the zero time.
func SnapshotDate(path string) time.Time {
	base := filepath.Base(path)
	if len(base) < len(DateLayout) {
		return time.Time{}
	}
	date, err := time.Parse(DateLayout, base[:len(DateLayout)])
	if err != nil {
		return time.Time{}
	}
	return date
}

// ReadFile reads a .csv or .xlsx snapshot file.
func ReadFile(path string) ([]domain.InventoryRecord, error) {
	date := SnapshotDate(path)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		rows, err := Read(f, date)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return rows, nil
	case ".xlsx":
		return ReadXLSX(path, date)
	default:
		return nil, fmt.Errorf("unsupported snapshot file extension %s for %s", filepath.Ext(path), path)
	}
}

// ReadFiles reads several snapshot files concurrently, limited to workers at a
// time. Rows are returned in path order.
func ReadFiles(ctx context.Context, paths []string, workers int) ([]domain.InventoryRecord, error) {
	if workers < 1 {
		workers = 1
	}

	results := make([][]domain.InventoryRecord, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := ReadFile(path)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []domain.InventoryRecord
	for _, rows := range results {
		all = append(all, rows...)
	}
	return all, nil
}

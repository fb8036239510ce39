package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"sales-dashboard/internal/models"
)

var (
	transactionColumns = []string{"transaction_id", "date", "customer_id", "product_id", "quantity", "total_amount", "payment_method"}
	productColumns     = []string{"product_id", "name", "category", "stock_level"}
	customerColumns    = []string{"customer_id", "name", "surname", "email", "city", "latitude", "longitude", "segment"}

	dateLayouts = []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		time.RFC3339,
	}
)

// Paths locates the three input record sets.
type Paths struct {
	Transactions string
	Products     string
	Customers    string
}

// Dataset is one load of the three record sets and their joined table.
type Dataset struct {
	Transactions []models.Transaction
	Products     []models.Product
	Customers    []models.Customer
	Records      []models.JoinedRecord
	Stats        JoinStats
}

// Load reads the three files concurrently and joins them.
func Load(ctx context.Context, paths Paths) (*Dataset, error) {
	var ds Dataset

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds.Transactions, err = LoadTransactions(gctx, paths.Transactions)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Products, err = LoadProducts(gctx, paths.Products)
		return err
	})
	g.Go(func() error {
		var err error
		ds.Customers, err = LoadCustomers(gctx, paths.Customers)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds.Records, ds.Stats = JoinWithStats(ds.Transactions, ds.Products, ds.Customers)
	return &ds, nil
}

func LoadTransactions(ctx context.Context, path string) ([]models.Transaction, error) {
	var out []models.Transaction
	err := readTable(ctx, path, transactionColumns, func(row tableRow) error {
		date, err := row.date("date")
		if err != nil {
			return err
		}
		quantity, err := row.integer("quantity")
		if err != nil {
			return err
		}
		amount, err := row.number("total_amount")
		if err != nil {
			return err
		}
		out = append(out, models.Transaction{
			TransactionID: row.text("transaction_id"),
			Date:          date,
			CustomerID:    row.text("customer_id"),
			ProductID:     row.text("product_id"),
			Quantity:      quantity,
			TotalAmount:   amount,
			PaymentMethod: NormalizeLabel(row.text("payment_method")),
		})
		return nil
	})
	return out, err
}

func LoadProducts(ctx context.Context, path string) ([]models.Product, error) {
	var out []models.Product
	err := readTable(ctx, path, productColumns, func(row tableRow) error {
		stock, err := row.integer("stock_level")
		if err != nil {
			return err
		}
		out = append(out, models.Product{
			ProductID:  row.text("product_id"),
			Name:       row.text("name"),
			Category:   NormalizeLabel(row.text("category")),
			StockLevel: stock,
		})
		return nil
	})
	return out, err
}

func LoadCustomers(ctx context.Context, path string) ([]models.Customer, error) {
	var out []models.Customer
	err := readTable(ctx, path, customerColumns, func(row tableRow) error {
		lat, err := row.optionalFloat("latitude")
		if err != nil {
			return err
		}
		lon, err := row.optionalFloat("longitude")
		if err != nil {
			return err
		}
		out = append(out, models.Customer{
			CustomerID: row.text("customer_id"),
			Name:       row.text("name"),
			Surname:    row.text("surname"),
			Email:      row.text("email"),
			City:       row.text("city"),
			Latitude:   lat,
			Longitude:  lon,
			Segment:    NormalizeLabel(row.text("segment")),
		})
		return nil
	})
	return out, err
}

type tableRow struct {
	path   string
	line   int
	index  map[string]int
	record []string
}

func (r tableRow) text(column string) string {
	return strings.TrimSpace(r.record[r.index[column]])
}

func (r tableRow) fail(column string, err error) error {
	return &LoadError{
		Path:   r.path,
		Column: column,
		Line:   r.line,
		Err:    fmt.Errorf("%w: %v", ErrInvalidValue, err),
	}
}

func (r tableRow) integer(column string) (int, error) {
	raw := r.text(column)
	if v, err := strconv.Atoi(raw); err == nil {
		return v, nil
	}
	// Exports from dataframe tools sometimes write integers as "3.0".
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, r.fail(column, fmt.Errorf("not an integer: %q", raw))
	}
	return int(f), nil
}

func (r tableRow) number(column string) (float64, error) {
	raw := r.text(column)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, r.fail(column, fmt.Errorf("not a number: %q", raw))
	}
	// ParseFloat accepts NaN and Inf spellings; neither is a usable amount.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, r.fail(column, fmt.Errorf("not a finite number: %q", raw))
	}
	return v, nil
}

func (r tableRow) optionalFloat(column string) (*float64, error) {
	if r.text(column) == "" {
		return nil, nil
	}
	v, err := r.number(column)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r tableRow) date(column string) (time.Time, error) {
	raw := r.text(column)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, r.fail(column, fmt.Errorf("not a date: %q", raw))
}

func readTable(ctx context.Context, path string, required []string, fn func(tableRow) error) error {
	file, err := os.Open(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &LoadError{Path: path, Err: ErrEmptyFile}
	}
	if err != nil {
		return &LoadError{Path: path, Line: 1, Err: err}
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := index[name]; !seen {
			index[name] = i
		}
	}
	for _, column := range required {
		if _, ok := index[column]; !ok {
			return &LoadError{Path: path, Column: column, Err: ErrMissingColumn}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return &LoadError{Path: path, Line: parseErr.Line, Err: err}
			}
			return &LoadError{Path: path, Err: err}
		}

		line, _ := reader.FieldPos(0)
		if err := fn(tableRow{path: path, line: line, index: index, record: record}); err != nil {
			return err
		}
	}
}

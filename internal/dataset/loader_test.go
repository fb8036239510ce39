package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	transactionsCSV = `transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method
1,2024-01-05,C1,P1,1,1200000,  credit CARD
2,2024-02-10 14:30:00,C2,P2,2.0,59.98,cash
3,2024-02-11,C1,P9,1,10, Cash `
	productsCSV = `product_id,name,category,stock_level
P1,"Server, rack",  electronics ,12
P2,Mouse,ELECTRONICS,40`
	customersCSV = `customer_id,name,surname,email,city,latitude,longitude,segment
C1,Ana,Diaz,ana@example.com,Madrid,40.41,-3.70, premium
C2,Luis,Gil,luis@example.com,Sevilla,,,regular`
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeDataset(t *testing.T) Paths {
	t.Helper()
	dir := t.TempDir()
	return Paths{
		Transactions: writeFile(t, dir, "transactions.csv", transactionsCSV),
		Products:     writeFile(t, dir, "products.csv", productsCSV),
		Customers:    writeFile(t, dir, "customers.csv", customersCSV),
	}
}

func TestLoad(t *testing.T) {
	ds, err := Load(context.Background(), writeDataset(t))
	require.NoError(t, err)

	require.Len(t, ds.Transactions, 3)
	require.Len(t, ds.Products, 2)
	require.Len(t, ds.Customers, 2)
	require.Len(t, ds.Records, 3)

	tx := ds.Transactions[1]
	assert.Equal(t, "2", tx.TransactionID)
	assert.Equal(t, 2, tx.Quantity)
	assert.Equal(t, 14, tx.Date.Hour())
	assert.Equal(t, "Cash", tx.PaymentMethod)
	assert.Equal(t, "Credit Card", ds.Transactions[0].PaymentMethod)
	assert.Equal(t, "Cash", ds.Transactions[2].PaymentMethod)

	assert.Equal(t, "Server, rack", ds.Products[0].Name)
	assert.Equal(t, "Electronics", ds.Products[0].Category)
	assert.Equal(t, "Electronics", ds.Products[1].Category)

	assert.Equal(t, "Premium", ds.Customers[0].Segment)
	require.NotNil(t, ds.Customers[0].Latitude)
	assert.InDelta(t, 40.41, *ds.Customers[0].Latitude, 1e-9)
	assert.Nil(t, ds.Customers[1].Latitude)

	assert.Nil(t, ds.Records[2].Product)
	assert.Equal(t, JoinStats{UnmatchedProducts: 1}, ds.Stats)
}

func TestLoad_MissingFile(t *testing.T) {
	paths := writeDataset(t)
	paths.Products = filepath.Join(t.TempDir(), "nope.csv")

	_, err := Load(context.Background(), paths)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, paths.Products, loadErr.Path)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadTransactions_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr error
		column  string
		line    int
	}{
		{
			name:    "empty file",
			csv:     "",
			wantErr: ErrEmptyFile,
		},
		{
			name:    "missing column",
			csv:     "transaction_id,date,customer_id,product_id,quantity,payment_method\n",
			wantErr: ErrMissingColumn,
			column:  "total_amount",
		},
		{
			name:    "invalid date",
			csv:     "transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method\n1,yesterday,C1,P1,1,10,cash",
			wantErr: ErrInvalidValue,
			column:  "date",
			line:    2,
		},
		{
			name:    "invalid amount",
			csv:     "transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method\n1,2024-01-01,C1,P1,1,ten,cash",
			wantErr: ErrInvalidValue,
			column:  "total_amount",
			line:    2,
		},
		{
			name:    "NaN amount",
			csv:     "transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method\n1,2024-01-01,C1,P1,1,NaN,cash",
			wantErr: ErrInvalidValue,
			column:  "total_amount",
			line:    2,
		},
		{
			name:    "infinite amount",
			csv:     "transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method\n1,2024-01-01,C1,P1,1,inf,cash",
			wantErr: ErrInvalidValue,
			column:  "total_amount",
			line:    2,
		},
		{
			name:    "infinite quantity",
			csv:     "transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method\n1,2024-01-01,C1,P1,Infinity,10,cash",
			wantErr: ErrInvalidValue,
			column:  "quantity",
			line:    2,
		},
		{
			name:    "fractional quantity",
			csv:     "transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method\n1,2024-01-01,C1,P1,1.5,10,cash",
			wantErr: ErrInvalidValue,
			column:  "quantity",
			line:    2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "transactions.csv", tt.csv)

			_, err := LoadTransactions(context.Background(), path)

			require.ErrorIs(t, err, tt.wantErr)
			var loadErr *LoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, tt.column, loadErr.Column)
			assert.Equal(t, tt.line, loadErr.Line)
		})
	}
}

func TestLoadCustomers_NonFiniteCoordinate(t *testing.T) {
	csv := "customer_id,name,surname,email,city,latitude,longitude,segment\n" +
		"C1,Ana,Diaz,ana@example.com,Madrid,40.41,-3.70,premium\n" +
		"C2,Luis,Gil,luis@example.com,Sevilla,nan,-5.98,regular"
	path := writeFile(t, t.TempDir(), "customers.csv", csv)

	_, err := LoadCustomers(context.Background(), path)

	require.ErrorIs(t, err, ErrInvalidValue)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "latitude", loadErr.Column)
	assert.Equal(t, 3, loadErr.Line)
}

func TestLoadTransactions_HeaderOnly(t *testing.T) {
	path := writeFile(t, t.TempDir(), "transactions.csv", "transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method\n")

	transactions, err := LoadTransactions(context.Background(), path)

	require.NoError(t, err)
	assert.Empty(t, transactions)
}

func TestLoadProducts_ColumnOrderAndExtras(t *testing.T) {
	csv := "\ufeffStock_Level,category,extra,name,product_id\n7,toys,x,Ball,P9"
	path := writeFile(t, t.TempDir(), "products.csv", csv)

	products, err := LoadProducts(context.Background(), path)

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "P9", products[0].ProductID)
	assert.Equal(t, "Toys", products[0].Category)
	assert.Equal(t, 7, products[0].StockLevel)
}

func TestLoad_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, writeDataset(t))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadError_Message(t *testing.T) {
	err := &LoadError{Path: "t.csv", Column: "date", Line: 3, Err: ErrInvalidValue}
	assert.Equal(t, `load t.csv: line 3 column "date": invalid value`, err.Error())

	err = &LoadError{Path: "t.csv", Column: "date", Err: ErrMissingColumn}
	assert.Equal(t, `load t.csv: column "date": missing required column`, err.Error())

	err = &LoadError{Path: "t.csv", Err: ErrEmptyFile}
	assert.Equal(t, "load t.csv: empty file", err.Error())
}

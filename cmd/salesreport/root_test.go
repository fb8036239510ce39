package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

const (
	transactionsCSV = `transaction_id,date,customer_id,product_id,quantity,total_amount,payment_method
T1,2024-01-05,C1,P1,1,800000,Transfer
T2,2024-01-20,C1,P2,3,90,cash
T3,2024-02-11,C2,P3,2,400,Cash
T4,2024-03-02,C3,P1,1,300000,Transfer`
	productsCSV = `product_id,name,category,stock_level
P1,Server Rack,Hardware,4
P2,Cable,accessories,250
P3,Switch,Hardware,12`
	customersCSV = `customer_id,name,surname,email,city,latitude,longitude,segment
C1,Ana,Diaz,ana@example.com,Madrid,40.41,-3.70,Enterprise
C2,Luis,Gil,luis@example.com,Sevilla,37.38,-5.98,Retail
C3,Eva,Ruiz,eva@example.com,Madrid,40.41,-3.70,Retail`
)

func setup(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	files := map[string]string{
		"transactions.csv": transactionsCSV,
		"products.csv":     productsCSV,
		"customers.csv":    customersCSV,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}

	return []string{
		"--transactions", filepath.Join(dir, "transactions.csv"),
		"--products", filepath.Join(dir, "products.csv"),
		"--customers", filepath.Join(dir, "customers.csv"),
		"--cache-dir", "",
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSummary(t *testing.T) {
	files := setup(t)

	out, err := run(t, append([]string{"summary"}, files...)...)
	require.NoError(t, err)

	var summary models.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))

	assert.Equal(t, 4, summary.Transactions)
	assert.InDelta(t, 1100490.0, summary.TotalSales, 0.001)
	assert.Equal(t, 3, summary.UniqueCustomers)
	assert.Equal(t, string(dataset.TierCritical), summary.Tier)
}

func TestSummary_Filtered(t *testing.T) {
	files := setup(t)

	out, err := run(t, append([]string{"summary", "--payment-method", "cash", "--from", "2024-01-01", "--to", "2024-01-31"}, files...)...)
	require.NoError(t, err)

	var summary models.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))

	assert.Equal(t, 1, summary.Transactions)
	assert.InDelta(t, 90.0, summary.TotalSales, 0.001)
	assert.Equal(t, string(dataset.TierLow), summary.Tier)
}

func TestTopProducts(t *testing.T) {
	files := setup(t)

	out, err := run(t, append([]string{"top-products", "--limit", "2"}, files...)...)
	require.NoError(t, err)

	var products []models.ProductQuantity
	require.NoError(t, json.Unmarshal([]byte(out), &products))

	require.Len(t, products, 2)
	assert.Equal(t, "Cable", products[0].ProductName)
	assert.Equal(t, 3, products[0].Quantity)
	assert.Equal(t, "Server Rack", products[1].ProductName)
}

func TestLocations(t *testing.T) {
	files := setup(t)

	out, err := run(t, append([]string{"locations", "--category", "Hardware"}, files...)...)
	require.NoError(t, err)

	var locations []models.LocationRollup
	require.NoError(t, json.Unmarshal([]byte(out), &locations))

	require.Len(t, locations, 2)
	assert.Equal(t, "Madrid", locations[0].City)
	assert.Equal(t, 2, locations[0].Customers)
	assert.Equal(t, "Enterprise", locations[0].PrincipalSegment)
	assert.Equal(t, string(dataset.TierCritical), locations[0].Tier)
}

func TestFilters(t *testing.T) {
	files := setup(t)

	out, err := run(t, append([]string{"filters"}, files...)...)
	require.NoError(t, err)

	var options models.FilterOptions
	require.NoError(t, json.Unmarshal([]byte(out), &options))

	assert.Equal(t, []string{"Accessories", "Hardware"}, options.Categories)
	assert.Equal(t, []string{"Cash", "Transfer"}, options.PaymentMethods)
	assert.Equal(t, "2024-01-05", options.MinDate)
	assert.Equal(t, "2024-03-02", options.MaxDate)
}

func TestErrors(t *testing.T) {
	files := setup(t)

	t.Run("reversed range", func(t *testing.T) {
		_, err := run(t, append([]string{"summary", "--from", "2024-03-01", "--to", "2024-01-01"}, files...)...)
		assert.ErrorIs(t, err, dataset.ErrInvalidRange)
	})

	t.Run("bad date", func(t *testing.T) {
		_, err := run(t, append([]string{"summary", "--from", "March"}, files...)...)
		assert.ErrorContains(t, err, "YYYY-MM-DD")
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := run(t, append([]string{"top-products", "--limit", "-1"}, files...)...)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run(t, "summary", "--transactions", "nope.csv", "--cache-dir", "")
		var loadErr *dataset.LoadError
		assert.ErrorAs(t, err, &loadErr)
	})
}

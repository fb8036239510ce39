package dataset

import (
	"cmp"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

const noSegment = "N/A"

// Summarize computes the headline metrics of a filtered view. An empty view
// yields zero values and the low tier.
func Summarize(records []models.JoinedRecord) models.Summary {
	total := decimal.Zero
	months := make(map[time.Time]decimal.Decimal)
	purchases := make(map[string]int)

	for _, r := range records {
		amount := decimal.NewFromFloat(r.TotalAmount)
		total = total.Add(amount)
		month := monthOf(r.Date)
		months[month] = months[month].Add(amount)
		if r.CustomerID != "" {
			purchases[r.CustomerID]++
		}
	}

	summary := models.Summary{
		TotalSales:      total.InexactFloat64(),
		UniqueCustomers: len(purchases),
		Transactions:    len(records),
		RetentionRate:   retentionRate(purchases),
	}
	if len(months) > 0 {
		monthSum := decimal.Zero
		for _, v := range months {
			monthSum = monthSum.Add(v)
		}
		summary.AverageMonthlySales = monthSum.Div(decimal.NewFromInt(int64(len(months)))).InexactFloat64()
	}
	summary.Tier = string(ClassifySales(summary.TotalSales))
	return summary
}

// retentionRate is the percentage of customers with more than one purchase,
// 0 when there are no customers.
func retentionRate(purchases map[string]int) float64 {
	if len(purchases) == 0 {
		return 0
	}
	repeat := 0
	for _, n := range purchases {
		if n > 1 {
			repeat++
		}
	}
	return float64(repeat) / float64(len(purchases)) * 100
}

// MonthlySeries returns one row per calendar month with at least one
// transaction, oldest first. Months without transactions are not emitted.
func MonthlySeries(records []models.JoinedRecord) []models.MonthlyData {
	type bucket struct {
		sales decimal.Decimal
		count int
	}
	buckets := make(map[time.Time]*bucket)
	for _, r := range records {
		month := monthOf(r.Date)
		b, ok := buckets[month]
		if !ok {
			b = &bucket{}
			buckets[month] = b
		}
		b.sales = b.sales.Add(decimal.NewFromFloat(r.TotalAmount))
		b.count++
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b time.Time) int { return a.Compare(b) })

	result := make([]models.MonthlyData, 0, len(keys))
	for _, k := range keys {
		result = append(result, models.MonthlyData{
			Month:        k.Format("2006-01"),
			Sales:        buckets[k].sales.InexactFloat64(),
			Transactions: buckets[k].count,
		})
	}
	return result
}

type locationKey struct {
	lat, lon float64
	city     string
}

type locationAcc struct {
	key          locationKey
	customers    int
	sales        decimal.Decimal
	transactions int
	segments     []string
}

// Locations rolls the customers present in the view up by (latitude,
// longitude, city). Customers without coordinates are left out. The principal
// segment is the most frequent one, ties going to the segment seen first.
func Locations(records []models.JoinedRecord) []models.LocationRollup {
	type customerAcc struct {
		customer     *models.Customer
		sales        decimal.Decimal
		transactions int
	}
	var order []string
	perCustomer := make(map[string]*customerAcc)
	for _, r := range records {
		if r.Customer == nil {
			continue
		}
		acc, ok := perCustomer[r.CustomerID]
		if !ok {
			acc = &customerAcc{customer: r.Customer}
			perCustomer[r.CustomerID] = acc
			order = append(order, r.CustomerID)
		}
		acc.sales = acc.sales.Add(decimal.NewFromFloat(r.TotalAmount))
		acc.transactions++
	}

	var locOrder []locationKey
	locations := make(map[locationKey]*locationAcc)
	for _, id := range order {
		acc := perCustomer[id]
		c := acc.customer
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		key := locationKey{lat: *c.Latitude, lon: *c.Longitude, city: c.City}
		loc, ok := locations[key]
		if !ok {
			loc = &locationAcc{key: key}
			locations[key] = loc
			locOrder = append(locOrder, key)
		}
		loc.customers++
		loc.sales = loc.sales.Add(acc.sales)
		loc.transactions += acc.transactions
		if c.Segment != "" {
			loc.segments = append(loc.segments, c.Segment)
		}
	}

	result := make([]models.LocationRollup, 0, len(locOrder))
	for _, key := range locOrder {
		loc := locations[key]
		sales := loc.sales.InexactFloat64()
		row := models.LocationRollup{
			City:             key.city,
			Latitude:         key.lat,
			Longitude:        key.lon,
			Customers:        loc.customers,
			Sales:            sales,
			Transactions:     loc.transactions,
			PrincipalSegment: mode(loc.segments),
			Tier:             string(ClassifySales(sales)),
		}
		if loc.transactions > 0 {
			row.AverageTicket = loc.sales.Div(decimal.NewFromInt(int64(loc.transactions))).InexactFloat64()
		}
		result = append(result, row)
	}

	slices.SortStableFunc(result, func(a, b models.LocationRollup) int {
		if c := cmp.Compare(b.Sales, a.Sales); c != 0 {
			return c
		}
		return cmp.Compare(a.City, b.City)
	})
	return result
}

func mode(values []string) string {
	if len(values) == 0 {
		return noSegment
	}
	counts := make(map[string]int, len(values))
	best, bestCount := "", 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

func CategoryTotals(records []models.JoinedRecord) []models.GroupTotal {
	return groupTotals(records, models.JoinedRecord.Category)
}

func PaymentMethodTotals(records []models.JoinedRecord) []models.GroupTotal {
	return groupTotals(records, func(r models.JoinedRecord) string { return r.PaymentMethod })
}

func SegmentTotals(records []models.JoinedRecord) []models.GroupTotal {
	return groupTotals(records, models.JoinedRecord.Segment)
}

// groupTotals sums total_amount per label, largest first. Records with an
// empty label are skipped.
func groupTotals(records []models.JoinedRecord, label func(models.JoinedRecord) string) []models.GroupTotal {
	sums := make(map[string]decimal.Decimal)
	for _, r := range records {
		l := label(r)
		if l == "" {
			continue
		}
		sums[l] = sums[l].Add(decimal.NewFromFloat(r.TotalAmount))
	}

	result := make([]models.GroupTotal, 0, len(sums))
	for l, v := range sums {
		result = append(result, models.GroupTotal{Label: l, Total: v.InexactFloat64()})
	}
	slices.SortFunc(result, func(a, b models.GroupTotal) int {
		if c := cmp.Compare(b.Total, a.Total); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return result
}

// TopProducts returns the n products with the largest quantity sold. Ties
// are ordered by name. n <= 0 returns every product.
func TopProducts(records []models.JoinedRecord, n int) []models.ProductQuantity {
	quantities := make(map[string]int)
	for _, r := range records {
		name := r.ProductName()
		if name == "" {
			continue
		}
		quantities[name] += r.Quantity
	}

	result := make([]models.ProductQuantity, 0, len(quantities))
	for name, q := range quantities {
		result = append(result, models.ProductQuantity{ProductName: name, Quantity: q})
	}
	slices.SortFunc(result, func(a, b models.ProductQuantity) int {
		if c := cmp.Compare(b.Quantity, a.Quantity); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductName, b.ProductName)
	})

	if n > 0 && len(result) > n {
		result = result[:n]
	}
	return result
}

// StockByCategory averages stock_level over the distinct products of each
// category present in the view. Stock is per product, so repeat sales of one
// product do not weigh the mean.
func StockByCategory(records []models.JoinedRecord) []models.CategoryStock {
	type acc struct {
		total    int
		products int
	}
	seen := make(map[string]struct{})
	categories := make(map[string]*acc)
	for _, r := range records {
		p := r.Product
		if p == nil || p.Category == "" {
			continue
		}
		if _, ok := seen[p.ProductID]; ok {
			continue
		}
		seen[p.ProductID] = struct{}{}
		a, ok := categories[p.Category]
		if !ok {
			a = &acc{}
			categories[p.Category] = a
		}
		a.total += p.StockLevel
		a.products++
	}

	result := make([]models.CategoryStock, 0, len(categories))
	for category, a := range categories {
		result = append(result, models.CategoryStock{
			Category:     category,
			AverageStock: float64(a.total) / float64(a.products),
		})
	}
	slices.SortFunc(result, func(a, b models.CategoryStock) int {
		if c := cmp.Compare(b.AverageStock, a.AverageStock); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})
	return result
}

// PricePoints derives a unit price for every record with a non-zero quantity.
func PricePoints(records []models.JoinedRecord) []models.PricePoint {
	result := make([]models.PricePoint, 0, len(records))
	for _, r := range records {
		if r.Quantity == 0 {
			continue
		}
		result = append(result, models.PricePoint{
			ProductName: r.ProductName(),
			Category:    r.Category(),
			UnitPrice:   r.TotalAmount / float64(r.Quantity),
			Quantity:    r.Quantity,
		})
	}
	return result
}

// NewestFirst returns a copy of records ordered by date, most recent first.
func NewestFirst(records []models.JoinedRecord) []models.JoinedRecord {
	out := slices.Clone(records)
	if out == nil {
		out = []models.JoinedRecord{}
	}
	slices.SortStableFunc(out, func(a, b models.JoinedRecord) int {
		return b.Date.Compare(a.Date)
	})
	return out
}

// BuildReport computes every aggregate table of a filtered view.
func BuildReport(records []models.JoinedRecord, topN int) models.Report {
	return models.Report{
		Summary:         Summarize(records),
		Monthly:         MonthlySeries(records),
		Locations:       Locations(records),
		Categories:      CategoryTotals(records),
		PaymentMethods:  PaymentMethodTotals(records),
		Segments:        SegmentTotals(records),
		TopProducts:     TopProducts(records, topN),
		StockByCategory: StockByCategory(records),
		PricePoints:     PricePoints(records),
	}
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

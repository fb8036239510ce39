package dataset

import (
	"time"

	"sales-dashboard/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(v float64) *float64 {
	return &v
}

func testProducts() []models.Product {
	return []models.Product{
		{ProductID: "P1", Name: "Laptop", Category: "Electronics", StockLevel: 10},
		{ProductID: "P2", Name: "Mouse", Category: "Electronics", StockLevel: 30},
		{ProductID: "P3", Name: "Desk", Category: "Furniture", StockLevel: 5},
	}
}

func testCustomers() []models.Customer {
	return []models.Customer{
		{CustomerID: "C1", Name: "Ana", City: "Madrid", Latitude: ptr(40.4), Longitude: ptr(-3.7), Segment: "Premium"},
		{CustomerID: "C2", Name: "Luis", City: "Madrid", Latitude: ptr(40.4), Longitude: ptr(-3.7), Segment: "Regular"},
		{CustomerID: "C3", Name: "Eva", City: "Sevilla", Latitude: ptr(37.4), Longitude: ptr(-6.0), Segment: "Regular"},
	}
}

func testTransactions() []models.Transaction {
	return []models.Transaction{
		{TransactionID: "T1", Date: day(2024, 1, 5), CustomerID: "C1", ProductID: "P1", Quantity: 1, TotalAmount: 1200, PaymentMethod: "Credit Card"},
		{TransactionID: "T2", Date: day(2024, 1, 20), CustomerID: "C1", ProductID: "P2", Quantity: 3, TotalAmount: 60, PaymentMethod: "Cash"},
		{TransactionID: "T3", Date: day(2024, 3, 2), CustomerID: "C2", ProductID: "P3", Quantity: 2, TotalAmount: 400, PaymentMethod: "Cash"},
		{TransactionID: "T4", Date: day(2024, 3, 31), CustomerID: "C3", ProductID: "P2", Quantity: 5, TotalAmount: 100, PaymentMethod: "Transfer"},
	}
}

func testRecords() []models.JoinedRecord {
	return Join(testTransactions(), testProducts(), testCustomers())
}

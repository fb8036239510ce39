package models

import "time"

type Transaction struct {
	TransactionID string    `json:"transaction_id"`
	Date          time.Time `json:"date"`
	CustomerID    string    `json:"customer_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	TotalAmount   float64   `json:"total_amount"`
	PaymentMethod string    `json:"payment_method"`
}

type Product struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	Category   string `json:"category"`
	StockLevel int    `json:"stock_level"`
}

type Customer struct {
	CustomerID string   `json:"customer_id"`
	Name       string   `json:"name"`
	Surname    string   `json:"surname"`
	Email      string   `json:"email"`
	City       string   `json:"city"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Segment    string   `json:"segment"`
}

// JoinedRecord is a transaction enriched with its product and customer.
// Product or Customer is nil when the foreign key had no match.
type JoinedRecord struct {
	Transaction
	Product  *Product  `json:"product"`
	Customer *Customer `json:"customer"`
}

func (r JoinedRecord) Category() string {
	if r.Product == nil {
		return ""
	}
	return r.Product.Category
}

func (r JoinedRecord) ProductName() string {
	if r.Product == nil {
		return ""
	}
	return r.Product.Name
}

func (r JoinedRecord) Segment() string {
	if r.Customer == nil {
		return ""
	}
	return r.Customer.Segment
}

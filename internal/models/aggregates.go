package models

type Summary struct {
	TotalSales          float64 `json:"total_sales"`
	AverageMonthlySales float64 `json:"average_monthly_sales"`
	UniqueCustomers     int     `json:"unique_customers"`
	RetentionRate       float64 `json:"retention_rate"`
	Transactions        int     `json:"transactions"`
	Tier                string  `json:"tier"`
}

type MonthlyData struct {
	Month        string  `json:"month"`
	Sales        float64 `json:"sales"`
	Transactions int     `json:"transactions"`
}

type LocationRollup struct {
	City             string  `json:"city"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Customers        int     `json:"customers"`
	Sales            float64 `json:"sales"`
	Transactions     int     `json:"transactions"`
	AverageTicket    float64 `json:"average_ticket"`
	PrincipalSegment string  `json:"principal_segment"`
	Tier             string  `json:"tier"`
}

// GroupTotal is a sales total for one value of a grouping dimension
// (category, payment method or segment).
type GroupTotal struct {
	Label string  `json:"label"`
	Total float64 `json:"total"`
}

type ProductQuantity struct {
	ProductName string `json:"product_name"`
	Quantity    int    `json:"quantity"`
}

type CategoryStock struct {
	Category     string  `json:"category"`
	AverageStock float64 `json:"average_stock"`
}

type PricePoint struct {
	ProductName string  `json:"product_name"`
	Category    string  `json:"category"`
	UnitPrice   float64 `json:"unit_price"`
	Quantity    int     `json:"quantity"`
}

// Report bundles every aggregate table computed from one filtered view.
type Report struct {
	Summary         Summary           `json:"summary"`
	Monthly         []MonthlyData     `json:"monthly"`
	Locations       []LocationRollup  `json:"locations"`
	Categories      []GroupTotal      `json:"categories"`
	PaymentMethods  []GroupTotal      `json:"payment_methods"`
	Segments        []GroupTotal      `json:"segments"`
	TopProducts     []ProductQuantity `json:"top_products"`
	StockByCategory []CategoryStock   `json:"stock_by_category"`
	PricePoints     []PricePoint      `json:"price_points"`
}

type FilterOptions struct {
	MinDate        string   `json:"min_date"`
	MaxDate        string   `json:"max_date"`
	Categories     []string `json:"categories"`
	Segments       []string `json:"segments"`
	PaymentMethods []string `json:"payment_methods"`
}

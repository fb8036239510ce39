package dataset

import "sales-dashboard/internal/models"

// JoinStats counts foreign keys without a match and ids that appeared more
// than once on the lookup side.
type JoinStats struct {
	UnmatchedProducts  int `json:"unmatched_products"`
	UnmatchedCustomers int `json:"unmatched_customers"`
	DuplicateProducts  int `json:"duplicate_products"`
	DuplicateCustomers int `json:"duplicate_customers"`
}

// Join left-joins transactions to products on product id and then to
// customers on customer id. The result has exactly one record per
// transaction, in transaction order.
func Join(transactions []models.Transaction, products []models.Product, customers []models.Customer) []models.JoinedRecord {
	records, _ := JoinWithStats(transactions, products, customers)
	return records
}

func JoinWithStats(transactions []models.Transaction, products []models.Product, customers []models.Customer) ([]models.JoinedRecord, JoinStats) {
	var stats JoinStats

	// First occurrence wins so a duplicated key can never fan out rows.
	productIndex := make(map[string]*models.Product, len(products))
	for i := range products {
		p := &products[i]
		if _, ok := productIndex[p.ProductID]; ok {
			stats.DuplicateProducts++
			continue
		}
		productIndex[p.ProductID] = p
	}

	customerIndex := make(map[string]*models.Customer, len(customers))
	for i := range customers {
		c := &customers[i]
		if _, ok := customerIndex[c.CustomerID]; ok {
			stats.DuplicateCustomers++
			continue
		}
		customerIndex[c.CustomerID] = c
	}

	records := make([]models.JoinedRecord, len(transactions))
	for i, tx := range transactions {
		record := models.JoinedRecord{Transaction: tx}
		if p, ok := productIndex[tx.ProductID]; ok {
			record.Product = p
		} else {
			stats.UnmatchedProducts++
		}
		if c, ok := customerIndex[tx.CustomerID]; ok {
			record.Customer = c
		} else {
			stats.UnmatchedCustomers++
		}
		records[i] = record
	}

	return records, stats
}

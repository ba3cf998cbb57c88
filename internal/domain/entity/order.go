package entity

import "time"

type OrderItem struct {
	MenuItemID string  `json:"menu_item_id" firestore:"menuItemId"`
	Name       string  `json:"name" firestore:"name"`
	Quantity   int     `json:"quantity" firestore:"quantity"`
	UnitPrice  float64 `json:"unit_price" firestore:"unitPrice"`
}

type Order struct {
	ID          string      `json:"id" firestore:"id"`
	OrderNumber string      `json:"order_number" firestore:"orderNumber"`
	CustomerID  string      `json:"customer_id" firestore:"customerId"`
	Items       []OrderItem `json:"items" firestore:"items"`
	Total       float64     `json:"total" firestore:"total"`
	Status      string      `json:"status" firestore:"status"`
	PlacedAt    time.Time   `json:"placed_at" firestore:"placedAt"`
	UpdatedAt   time.Time   `json:"updated_at" firestore:"updatedAt"`
}

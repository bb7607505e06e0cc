package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
)

// OrderDTO is the API shape of an order with its items.
type OrderDTO struct {
	ID              uuid.UUID         `json:"id"`
	BuyerID         uuid.UUID         `json:"buyer_id"`
	Status          enums.OrderStatus `json:"status"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	ShippingAddress *string           `json:"shipping_address,omitempty"`
	Note            *string           `json:"note,omitempty"`
	Items           []OrderItemDTO    `json:"items"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// OrderItemDTO is the API shape of one order line.
type OrderItemDTO struct {
	ID                 uuid.UUID         `json:"id"`
	OrderID            uuid.UUID         `json:"order_id"`
	ProductID          *uuid.UUID        `json:"product_id"`
	InventoryProductID *uuid.UUID        `json:"inventory_product_id"`
	FarmerID           *uuid.UUID        `json:"farmer_id"`
	Name               string            `json:"name"`
	Quantity           int               `json:"quantity"`
	UnitPrice          decimal.Decimal   `json:"unit_price"`
	TotalPrice         decimal.Decimal   `json:"total_price"`
	Status             enums.OrderStatus `json:"status"`
	Note               *string           `json:"note"`
	CreatedAt          time.Time         `json:"created_at"`
}

// OrderList is one page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// OrderItemList is one page of seller items.
type OrderItemList struct {
	Items      []OrderItemDTO `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

func orderToDTO(order models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemToDTO(item))
	}
	return OrderDTO{
		ID:              order.ID,
		BuyerID:         order.BuyerID,
		Status:          order.Status,
		TotalPrice:      order.TotalPrice,
		ShippingAddress: order.ShippingAddress,
		Note:            order.Note,
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

func itemToDTO(item models.OrderItem) OrderItemDTO {
	return OrderItemDTO{
		ID:                 item.ID,
		OrderID:            item.OrderID,
		ProductID:          item.ProductID,
		InventoryProductID: item.InventoryProductID,
		FarmerID:           item.FarmerID,
		Name:               item.Name,
		Quantity:           item.Quantity,
		UnitPrice:          item.UnitPrice,
		TotalPrice:         item.TotalPrice,
		Status:             item.Status,
		Note:               item.Note,
		CreatedAt:          item.CreatedAt,
	}
}

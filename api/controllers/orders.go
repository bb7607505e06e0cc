package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/krishikarobar/marketplace-backend/api/responses"
	"github.com/krishikarobar/marketplace-backend/api/validators"
	"github.com/krishikarobar/marketplace-backend/internal/orders"
	"github.com/krishikarobar/marketplace-backend/pkg/enums"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
	"github.com/krishikarobar/marketplace-backend/pkg/logger"
)

type checkoutRequest struct {
	Items           []checkoutLineRequest `json:"items" validate:"required,min=1"`
	ShippingAddress *string               `json:"shipping_address"`
	Note            *string               `json:"note"`
}

type checkoutLineRequest struct {
	ProductID          *uuid.UUID `json:"product_id"`
	InventoryProductID *uuid.UUID `json:"inventory_product_id"`
	FarmerID           *uuid.UUID `json:"farmer_id"`
	Quantity           int        `json:"quantity"`
	Note               *string    `json:"note"`
}

type updateOrderRequest struct {
	Status string `json:"status" validate:"required"`
}

// Checkout places an order from the submitted lines and answers 201.
// Line problems are reported together by the service.
func Checkout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]orders.CheckoutLine, 0, len(payload.Items))
		for _, item := range payload.Items {
			lines = append(lines, orders.CheckoutLine{
				ProductID:          item.ProductID,
				InventoryProductID: item.InventoryProductID,
				FarmerID:           item.FarmerID,
				Quantity:           item.Quantity,
				Note:               validators.SanitizeOptional(item.Note, noteMaxLen),
			})
		}

		order, err := svc.Checkout(r.Context(), orders.CheckoutInput{
			Actor:           actor,
			Lines:           lines,
			ShippingAddress: validators.SanitizeOptional(payload.ShippingAddress, noteMaxLen),
			Note:            validators.SanitizeOptional(payload.Note, noteMaxLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// ListOrders pages through the caller's orders, or every order for admins.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := validators.ParseQueryStatus(r, "status")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListBuyerOrders(r.Context(), orders.ListOrdersInput{
			Actor:  actor,
			Status: status,
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetOrder(r.Context(), actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// UpdateOrder accepts only {"status":"cancelled"}; buyers have no other
// write on an order.
func UpdateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if strings.TrimSpace(payload.Status) != enums.OrderStatusCancelled.String() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "buyers can only cancel orders"))
			return
		}

		order, err := svc.CancelOrder(r.Context(), orders.CancelOrderInput{Actor: actor, OrderID: orderID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

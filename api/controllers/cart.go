package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/krishikarobar/marketplace-backend/api/responses"
	"github.com/krishikarobar/marketplace-backend/api/validators"
	cartsvc "github.com/krishikarobar/marketplace-backend/internal/cart"
	"github.com/krishikarobar/marketplace-backend/pkg/db/models"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
	"github.com/krishikarobar/marketplace-backend/pkg/logger"
	"github.com/krishikarobar/marketplace-backend/pkg/types"
)

type addCartItemRequest struct {
	ProductID          *uuid.UUID `json:"product_id"`
	InventoryProductID *uuid.UUID `json:"inventory_product_id"`
	Quantity           int        `json:"quantity" validate:"gte=0"`
	Note               *string    `json:"note"`
}

type updateCartItemRequest struct {
	Quantity int     `json:"quantity" validate:"gte=1"`
	Note     *string `json:"note"`
}

type cartItemResponse struct {
	ID                 uuid.UUID  `json:"id"`
	CartID             uuid.UUID  `json:"cart_id"`
	ProductID          *uuid.UUID `json:"product_id"`
	InventoryProductID *uuid.UUID `json:"inventory_product_id"`
	Quantity           int        `json:"quantity"`
	Note               *string    `json:"note,omitempty"`
	AddedAt            time.Time  `json:"added_at"`
}

func newCartItemResponse(item *models.CartItem) cartItemResponse {
	return cartItemResponse{
		ID:                 item.ID,
		CartID:             item.CartID,
		ProductID:          item.ProductID,
		InventoryProductID: item.InventoryProductID,
		Quantity:           item.Quantity,
		Note:               item.Note,
		AddedAt:            item.AddedAt,
	}
}

// GetCart returns the caller's cart priced at current catalog values.
func GetCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.GetCart(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// AddCartItem adds a line or merges into the existing line for the same
// catalog entry. New lines answer 201, merges 200.
func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload addCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ref, err := types.ParseCatalogRef(payload.ProductID, payload.InventoryProductID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error()))
			return
		}

		result, err := svc.AddItem(r.Context(), cartsvc.AddItemInput{
			BuyerID:  actor.UserID,
			Ref:      ref,
			Quantity: payload.Quantity,
			Note:     validators.SanitizeOptional(payload.Note, noteMaxLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, newCartItemResponse(result.Item))
	}
}

// UpdateCartItem sets a line's quantity.
func UpdateCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateCartItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.UpdateQuantity(r.Context(), cartsvc.UpdateQuantityInput{
			BuyerID:  actor.UserID,
			ItemID:   itemID,
			Quantity: payload.Quantity,
			Note:     validators.SanitizeOptional(payload.Note, noteMaxLen),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCartItemResponse(item))
	}
}

// RemoveCartItem deletes one of the caller's cart lines.
func RemoveCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := validators.ParseUUIDParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveItem(r.Context(), actor.UserID, itemID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

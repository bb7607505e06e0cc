package controllers

import (
	"net/http"

	"github.com/krishikarobar/marketplace-backend/api/middleware"
	"github.com/krishikarobar/marketplace-backend/internal/orders"
	pkgerrors "github.com/krishikarobar/marketplace-backend/pkg/errors"
)

const noteMaxLen = 500

func actorFromRequest(r *http.Request) (orders.Actor, error) {
	userID, role, ok := middleware.Identity(r.Context())
	if !ok {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return orders.Actor{UserID: userID, Role: role}, nil
}

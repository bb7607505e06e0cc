package orders

import (
	"testing"

	"github.com/krishikarobar/marketplace-backend/pkg/enums"
)

func TestAggregateStatus(t *testing.T) {
	const (
		pending   = enums.OrderStatusPending
		accepted  = enums.OrderStatusAccepted
		shipped   = enums.OrderStatusShipped
		delivered = enums.OrderStatusDelivered
		cancelled = enums.OrderStatusCancelled
	)

	cases := []struct {
		name     string
		statuses []enums.OrderStatus
		want     enums.OrderStatus
	}{
		{"no items", nil, pending},
		{"all cancelled", []enums.OrderStatus{cancelled, cancelled}, cancelled},
		{"all delivered", []enums.OrderStatus{delivered, delivered}, delivered},
		{"all shipped", []enums.OrderStatus{shipped}, shipped},
		{"all accepted", []enums.OrderStatus{accepted, accepted, accepted}, accepted},
		{"single pending", []enums.OrderStatus{pending}, pending},
		{"pending beats shipped", []enums.OrderStatus{pending, shipped}, pending},
		{"pending beats delivered", []enums.OrderStatus{delivered, pending}, pending},
		{"delivered and cancelled", []enums.OrderStatus{delivered, cancelled}, delivered},
		{"shipped and cancelled", []enums.OrderStatus{shipped, cancelled}, shipped},
		{"accepted and cancelled", []enums.OrderStatus{cancelled, accepted}, accepted},
		{"accepted and shipped", []enums.OrderStatus{accepted, shipped}, shipped},
		{"accepted shipped delivered", []enums.OrderStatus{accepted, shipped, delivered}, delivered},
		{"pending and cancelled", []enums.OrderStatus{pending, cancelled}, pending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AggregateStatus(tc.statuses); got != tc.want {
				t.Fatalf("AggregateStatus(%v) = %s, want %s", tc.statuses, got, tc.want)
			}
		})
	}
}

func TestAggregateStatusIgnoresOrder(t *testing.T) {
	a := AggregateStatus([]enums.OrderStatus{enums.OrderStatusShipped, enums.OrderStatusDelivered, enums.OrderStatusCancelled})
	b := AggregateStatus([]enums.OrderStatus{enums.OrderStatusCancelled, enums.OrderStatusDelivered, enums.OrderStatusShipped})
	if a != b || a != enums.OrderStatusDelivered {
		t.Fatalf("expected delivered for both orderings, got %s and %s", a, b)
	}
}

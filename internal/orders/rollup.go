package orders

import "github.com/krishikarobar/marketplace-backend/pkg/enums"

// rollupPriority breaks ties for mixed sets that no earlier rule covers.
var rollupPriority = []enums.OrderStatus{
	enums.OrderStatusDelivered,
	enums.OrderStatusShipped,
	enums.OrderStatusAccepted,
	enums.OrderStatusPending,
	enums.OrderStatusCancelled,
}

// AggregateStatus derives an order's status from its items' statuses. The
// rules are evaluated in order:
//
//  1. no items: pending
//  2. all cancelled: cancelled
//  3. all delivered: delivered
//  4. all shipped: shipped
//  5. all accepted: accepted
//  6. any pending: pending
//  7. otherwise the highest of delivered > shipped > accepted > pending > cancelled
func AggregateStatus(statuses []enums.OrderStatus) enums.OrderStatus {
	if len(statuses) == 0 {
		return enums.OrderStatusPending
	}
	present := make(map[enums.OrderStatus]int, len(rollupPriority))
	for _, s := range statuses {
		present[s]++
	}
	for _, s := range []enums.OrderStatus{
		enums.OrderStatusCancelled,
		enums.OrderStatusDelivered,
		enums.OrderStatusShipped,
		enums.OrderStatusAccepted,
	} {
		if present[s] == len(statuses) {
			return s
		}
	}
	if present[enums.OrderStatusPending] > 0 {
		return enums.OrderStatusPending
	}
	for _, s := range rollupPriority {
		if present[s] > 0 {
			return s
		}
	}
	// Only unknown statuses remain.
	return enums.OrderStatusPending
}

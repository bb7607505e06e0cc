package enums

import "fmt"

// NotificationType categorizes a notification row for client filtering.
type NotificationType string

const (
	NotificationTypeOrder       NotificationType = "order"
	NotificationTypeOrderStatus NotificationType = "order_status"
	NotificationTypeReview      NotificationType = "review"
	NotificationTypeStock       NotificationType = "stock"
	NotificationTypeMessage     NotificationType = "message"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrder,
	NotificationTypeOrderStatus,
	NotificationTypeReview,
	NotificationTypeStock,
	NotificationTypeMessage,
}

func (n NotificationType) String() string {
	return string(n)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

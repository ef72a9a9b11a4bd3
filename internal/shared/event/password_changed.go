package event

import "time"

const PasswordChangedDestination string = "auth.password.changed"
const PasswordChangedConsumerNotification string = "auth_password_changed_notification"

type PasswordChangedMessage struct {
	EventID    string    `json:"eventId"`
	AccountID  int64     `json:"accountId,string"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

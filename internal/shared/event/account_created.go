package event

import "time"

const AccountCreatedDestination string = "auth.account.created"
const AccountCreatedConsumerNotification string = "auth_account_created_notification"

type AccountCreatedMessage struct {
	EventID    string    `json:"eventId"`
	AccountID  int64     `json:"accountId,string"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurredAt"`
}

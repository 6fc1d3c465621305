package event

// NotificationIntentDestination is where intents for the external notifier are published.
const NotificationIntentDestination string = "notification.intent"

// Recipient used when an intent targets the administrator group rather than one subject.
const RecipientAdministrators string = "administrators"

// NotificationIntentMessage asks the notifier to deliver a message. The core
// decides what to say; delivery is out of process.
type NotificationIntentMessage struct {
	EventType string            `json:"event_type"`
	Recipient string            `json:"recipient"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
}

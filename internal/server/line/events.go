package line

import "encoding/json"

// Event types delivered by the webhook.
const (
	EventMessage  = "message"
	EventFollow   = "follow"
	EventUnfollow = "unfollow"
)

// Message types of a message event.
const (
	MessageText  = "text"
	MessageImage = "image"
)

// WebhookBody is one webhook delivery.
type WebhookBody struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// InboundMessage is the message carried by a message event.
type InboundMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type Event struct {
	Type       string          `json:"type"`
	ReplyToken string          `json:"replyToken,omitempty"`
	Timestamp  int64           `json:"timestamp"`
	Source     Source          `json:"source"`
	Message    *InboundMessage `json:"message,omitempty"`
}

// ParseWebhook decodes a webhook body.
func ParseWebhook(b []byte) (WebhookBody, error) {
	var body WebhookBody
	if err := json.Unmarshal(b, &body); err != nil {
		return WebhookBody{}, err
	}
	return body, nil
}

// ConnectionCheckUserID is the dummy user id sent by the console's
// "verify webhook" button.
const ConnectionCheckUserID = "Udeadbeefdeadbeefdeadbeefdeadbeef"

// IsConnectionCheck reports whether the delivery is a webhook verification
// request that must be acknowledged without processing.
func (b WebhookBody) IsConnectionCheck() bool {
	return len(b.Events) > 0 && b.Events[0].Source.UserID == ConnectionCheckUserID
}

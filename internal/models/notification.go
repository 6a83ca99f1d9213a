package models

const (
	NotificationOperator  = "operator_notification"
	NotificationApplicant = "applicant_acknowledgment"
)

// Message is a single outbound email.
type Message struct {
	To       string `json:"to"`
	From     string `json:"from"`
	ReplyTo  string `json:"replyTo,omitempty"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
}

type NotificationTemplate struct {
	Name     string `json:"name"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
}

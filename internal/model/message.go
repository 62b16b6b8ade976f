package model

import "time"

// Folder is a mailbox folder resolved by display name. The id is an
// opaque API identifier and is re-resolved every run rather than
// cached, since it is not guaranteed stable across API versions.
type Folder struct {
	DisplayName string `json:"displayName"`
	ID          string `json:"id"`
}

// Message is one mail message as returned by the folder listing.
// Transient: discarded once its body has been through extraction.
type Message struct {
	// ID is the mail API's opaque message identifier.
	ID string `json:"id"`

	// Subject is the message subject, used as the suite-name fallback
	// when the report table carries no SUITE column.
	Subject string `json:"subject"`

	// ReceivedAt is when the mailbox received the message, used as the
	// execution-time fallback when the table carries no DATE column.
	ReceivedAt time.Time `json:"receivedDateTime"`

	// BodyHTML is the HTML message body containing the report table.
	BodyHTML string `json:"-"`
}

package graph

import "time"

// tokenResponse is the OAuth2 client-credentials token exchange reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// wireFolder is one entry of the child-folder listing.
type wireFolder struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// folderList is the envelope of the child-folder listing.
type folderList struct {
	Value []wireFolder `json:"value"`
}

// wireBody is the nested body object of a message.
type wireBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// wireMessage is one entry of the message listing.
type wireMessage struct {
	ID               string    `json:"id"`
	Subject          string    `json:"subject"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
	Body             wireBody  `json:"body"`
}

// messageList is the envelope of the message listing.
type messageList struct {
	Value []wireMessage `json:"value"`
}

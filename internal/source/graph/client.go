package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/akaul/reportdash/internal/model"
	"github.com/akaul/reportdash/internal/source"
)

// defaultGraphBaseURL is the public Graph API root.
const defaultGraphBaseURL = "https://graph.microsoft.com/v1.0"

// TokenSource supplies a bearer token for mail API calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client is a thin HTTP client for the Graph mail API. It handles
// Bearer authentication and JSON decoding; non-success statuses come
// back as TransportError with the status and body preserved. It does
// not retry — re-running the ingestion job is the retry mechanism.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a mail API client. An empty baseURL means the
// public Graph endpoint.
func NewClient(tokens TokenSource, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultGraphBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ResolveFolder lists the immediate child folders of the inbox and
// returns the first whose display name equals name. Matching is
// literal and case-sensitive. The second return is false when no
// folder matched; folder ids are never assumed stable across runs, so
// callers re-resolve by name every run.
func (c *Client) ResolveFolder(
	ctx context.Context,
	name string,
) (model.Folder, bool, error) {
	var folders folderList
	err := c.get(ctx, "/me/mailFolders/inbox/childFolders", &folders)
	if err != nil {
		return model.Folder{}, false, err
	}

	for _, f := range folders.Value {
		if f.DisplayName == name {
			return model.Folder{
				DisplayName: f.DisplayName,
				ID:          f.ID,
			}, true, nil
		}
	}

	return model.Folder{}, false, nil
}

// ListMessages returns up to limit most-recent messages from the given
// folder. Ordering is the API's default (most-recent-first) and is
// passed through untouched; the ingestion pipeline depends on it being
// deterministic within a run, not on this client re-sorting.
func (c *Client) ListMessages(
	ctx context.Context,
	folder model.Folder,
	limit int,
) ([]model.Message, error) {
	path := fmt.Sprintf("/me/mailFolders/%s/messages?$top=%d", folder.ID, limit)

	var listing messageList
	if err := c.get(ctx, path, &listing); err != nil {
		return nil, err
	}

	messages := make([]model.Message, 0, len(listing.Value))
	for _, m := range listing.Value {
		messages = append(messages, model.Message{
			ID:         m.ID,
			Subject:    m.Subject,
			ReceivedAt: m.ReceivedDateTime,
			BodyHTML:   m.Body.Content,
		})
	}

	return messages, nil
}

// get performs an authenticated GET and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, result interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+path, nil,
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing GET %s: %w", path, err)
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return fmt.Errorf("reading response body: %w", readErr)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &source.AuthError{
			Message: fmt.Sprintf(
				"mail API rejected the bearer token (401): %s",
				string(respBody),
			),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &source.TransportError{
			Op:     "GET " + path,
			Status: resp.StatusCode,
			Body:   string(respBody),
		}
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from GET %s: %w", path, err)
	}

	return nil
}

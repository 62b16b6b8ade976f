package graph_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akaul/reportdash/internal/model"
	"github.com/akaul/reportdash/internal/source"
	"github.com/akaul/reportdash/internal/source/graph"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token(context.Context) (string, error) {
	return s.token, s.err
}

const childFoldersBody = `{"value":[
	{"displayName":"Archive","id":"f-archive"},
	{"displayName":"Smoke-setup1","id":"f-smoke"},
	{"displayName":"smoke-setup1","id":"f-lower"}
]}`

func TestResolveFolderExactMatch(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/mailFolders/inbox/childFolders", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(childFoldersBody))
	}))
	defer srv.Close()

	client := graph.NewClient(staticTokens{token: "tok-abc"}, srv.URL)

	folder, found, err := client.ResolveFolder(context.Background(), "Smoke-setup1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "f-smoke", folder.ID)
	assert.Equal(t, "Smoke-setup1", folder.DisplayName)
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestResolveFolderIsCaseSensitive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[{"displayName":"smoke-setup1","id":"f-lower"}]}`))
	}))
	defer srv.Close()

	client := graph.NewClient(staticTokens{token: "tok-abc"}, srv.URL)

	_, found, err := client.ResolveFolder(context.Background(), "Smoke-setup1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestResolveFolderNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()

	client := graph.NewClient(staticTokens{token: "tok-abc"}, srv.URL)

	_, found, err := client.ResolveFolder(context.Background(), "Smoke-setup1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/me/mailFolders/f-smoke/messages", r.URL.Path)
		require.Equal(t, "5", r.URL.Query().Get("$top"))
		_, _ = w.Write([]byte(`{"value":[
			{"id":"m1","subject":"Automated report","receivedDateTime":"2026-08-20T12:00:00Z",
			 "body":{"contentType":"html","content":"<table></table>"}},
			{"id":"m2","subject":"Automated report","receivedDateTime":"2026-08-19T12:00:00Z",
			 "body":{"contentType":"html","content":"<p>hi</p>"}}
		]}`))
	}))
	defer srv.Close()

	client := graph.NewClient(staticTokens{token: "tok-abc"}, srv.URL)
	folder := model.Folder{DisplayName: "Smoke-setup1", ID: "f-smoke"}

	messages, err := client.ListMessages(context.Background(), folder, 5)
	require.NoError(t, err)
	require.Len(t, messages, 2)

	assert.Equal(t, "m1", messages[0].ID)
	assert.Equal(t, "Automated report", messages[0].Subject)
	assert.True(t, messages[0].ReceivedAt.Equal(
		time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "<table></table>", messages[0].BodyHTML)
}

func TestListMessagesEmptyFolder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"value":[]}`))
	}))
	defer srv.Close()

	client := graph.NewClient(staticTokens{token: "tok-abc"}, srv.URL)

	messages, err := client.ListMessages(
		context.Background(), model.Folder{ID: "f-smoke"}, 5)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestUnauthorizedIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"InvalidAuthenticationToken"}}`))
	}))
	defer srv.Close()

	client := graph.NewClient(staticTokens{token: "tok-stale"}, srv.URL)

	_, _, err := client.ResolveFolder(context.Background(), "Smoke-setup1")
	require.Error(t, err)
	assert.True(t, source.IsAuthError(err))
}

func TestServerErrorIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("mailbox busy"))
	}))
	defer srv.Close()

	client := graph.NewClient(staticTokens{token: "tok-abc"}, srv.URL)

	_, err := client.ListMessages(
		context.Background(), model.Folder{ID: "f-smoke"}, 5)
	require.Error(t, err)
	assert.True(t, source.IsTransportError(err))

	var transportErr *source.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.Status)
	assert.Contains(t, transportErr.Body, "mailbox busy")
}

func TestTokenFailureShortCircuits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("mail API should not be reached without a token")
	}))
	defer srv.Close()

	tokenErr := &source.AuthError{Message: "missing credentials: client secret"}
	client := graph.NewClient(staticTokens{err: tokenErr}, srv.URL)

	_, _, err := client.ResolveFolder(context.Background(), "Smoke-setup1")
	require.Error(t, err)
	assert.True(t, source.IsAuthError(err))
}

// Package line is a small client for the LINE Messaging API covering the
// calls the bot makes: reply, message content and per-user rich menus.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	DefaultAPIBaseURL  = "https://api.line.me"
	DefaultDataBaseURL = "https://api-data.line.me"

	// maxContentBytes caps downloaded message content (LINE images are well below this).
	maxContentBytes = 20 << 20
)

// Client calls the Messaging API with a channel access token.
type Client struct {
	httpClient   *http.Client
	apiBase      string
	dataBase     string
	channelToken string
}

// NewClient returns a client. Empty base URLs fall back to the public endpoints.
func NewClient(httpClient *http.Client, channelToken, apiBase, dataBase string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if apiBase == "" {
		apiBase = DefaultAPIBaseURL
	}
	if dataBase == "" {
		dataBase = DefaultDataBaseURL
	}
	return &Client{
		httpClient:   httpClient,
		apiBase:      strings.TrimSuffix(apiBase, "/"),
		dataBase:     strings.TrimSuffix(dataBase, "/"),
		channelToken: channelToken,
	}
}

// Reply sends messages in response to an event identified by replyToken.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	body := struct {
		ReplyToken string    `json:"replyToken"`
		Messages   []Message `json:"messages"`
	}{replyToken, messages}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodPost, c.apiBase+"/v2/bot/message/reply", b)
	return err
}

// MessageContent downloads the binary content (e.g. an image) of a message.
func (c *Client) MessageContent(ctx context.Context, messageID string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, c.dataBase+"/v2/bot/message/"+url.PathEscape(messageID)+"/content", nil)
}

// LinkRichMenu links a rich menu to a user.
func (c *Client) LinkRichMenu(ctx context.Context, userID, richMenuID string) error {
	_, err := c.do(ctx, http.MethodPost, c.apiBase+"/v2/bot/user/"+url.PathEscape(userID)+"/richmenu/"+url.PathEscape(richMenuID), nil)
	return err
}

// UnlinkRichMenu removes any rich menu linked to a user.
func (c *Client) UnlinkRichMenu(ctx context.Context, userID string) error {
	_, err := c.do(ctx, http.MethodDelete, c.apiBase+"/v2/bot/user/"+url.PathEscape(userID)+"/richmenu", nil)
	return err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body []byte) ([]byte, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.channelToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("line: %s %s returned %s: %s", method, endpoint, resp.Status, bytes.TrimSpace(data))
	}
	return data, nil
}

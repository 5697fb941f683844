// Package chat provides a client for the chat generation API.
package chat

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Client is a chat API client. Token is a session bearer token.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a new chat client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL: baseURL,
		Token:   os.Getenv("CHAT_TOKEN"),
		// No overall timeout: generation responses are long-lived streams.
		HTTPClient: &http.Client{},
	}
}

// doRequest performs an HTTP request and returns the response body.
func (c *Client) doRequest(method, path string, body []byte) ([]byte, error) {
	resp, err := c.do(method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) do(method, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequest(method, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		var errResp struct {
			Error string `json:"error"`
		}
		json.Unmarshal(respBody, &errResp)
		if errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(respBody))
		}
		return nil, fmt.Errorf("chat error %d: %s", resp.StatusCode, errResp.Error)
	}

	return resp, nil
}

func (c *Client) getJSON(path string, out any) error {
	respBody, err := c.doRequest("GET", path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(respBody, out)
}

// Model describes a model offered by the server.
type Model struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Type      string   `json:"type"`
	Provider  string   `json:"provider"`
	FileTypes []string `json:"fileTypes,omitempty"`
	Options   []string `json:"options,omitempty"`
}

// ListModels lists the models the server can generate with.
func (c *Client) ListModels() ([]Model, error) {
	var resp struct {
		Models []Model `json:"models"`
	}
	if err := c.getJSON("/api/models", &resp); err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// Part is one piece of a message's content.
type Part struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	Filename  string `json:"filename,omitempty"`
	MediaType string `json:"mediaType,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Message is a chat message.
type Message struct {
	ID        string          `json:"id"`
	ChatID    string          `json:"chatId"`
	Role      string          `json:"role"`
	Parts     []Part          `json:"parts"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Text returns the concatenated text parts of the message.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Parts {
		if p.Type == "text" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// Chat is a conversation.
type Chat struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Pinned        bool      `json:"pinned"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ListChats lists the authenticated user's chats.
func (c *Client) ListChats(limit, offset int) ([]Chat, error) {
	var resp struct {
		Chats []Chat `json:"chats"`
	}
	path := fmt.Sprintf("/api/chats?limit=%d&offset=%d", limit, offset)
	if err := c.getJSON(path, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// ChatResponse is a chat with its messages.
type ChatResponse struct {
	Chat     *Chat     `json:"chat"`
	Messages []Message `json:"messages"`
}

// GetChat retrieves a chat and its messages.
func (c *Client) GetChat(chatID string) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.getJSON("/api/chats/"+chatID, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteChat deletes a chat.
func (c *Client) DeleteChat(chatID string) error {
	_, err := c.doRequest("DELETE", "/api/chats/"+chatID, nil)
	return err
}

// SearchChats searches message text across the user's chats.
func (c *Client) SearchChats(query string, limit int) ([]Chat, error) {
	var resp struct {
		Chats []Chat `json:"chats"`
	}
	path := fmt.Sprintf("/api/search?q=%s&limit=%d", url.QueryEscape(query), limit)
	if err := c.getJSON(path, &resp); err != nil {
		return nil, err
	}
	return resp.Chats, nil
}

// DerivedChatResponse carries the id of a chat created by branch or retry.
type DerivedChatResponse struct {
	ChatID string `json:"chatId"`
}

// Branch creates a new chat containing history up to and including the
// given message.
func (c *Client) Branch(messageID string) (*DerivedChatResponse, error) {
	body, _ := json.Marshal(map[string]string{"messageId": messageID})
	respBody, err := c.doRequest("POST", "/api/branch", body)
	if err != nil {
		return nil, err
	}
	var resp DerivedChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Retry creates a new chat primed to regenerate from the given message
// with a different model.
func (c *Client) Retry(messageID, modelID string) (*DerivedChatResponse, error) {
	body, _ := json.Marshal(map[string]any{
		"messageId": messageID,
		"model":     map[string]string{"id": modelID},
	})
	respBody, err := c.doRequest("POST", "/api/retry", body)
	if err != nil {
		return nil, err
	}
	var resp DerivedChatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Event is one element of a generation stream.
type Event struct {
	Type      string          `json:"type"`
	MessageID string          `json:"messageId,omitempty"`
	Delta     string          `json:"delta,omitempty"`
	MediaType string          `json:"mediaType,omitempty"`
	URL       string          `json:"url,omitempty"`
	Metadata  json.RawMessage `json:"messageMetadata,omitempty"`
	Message   string          `json:"message,omitempty"`
}

// GenerateRequest is the body of a generation request.
type GenerateRequest struct {
	ChatID   string         `json:"chatId"`
	Model    map[string]any `json:"model"`
	Messages []Message      `json:"messages"`
	Retry    bool           `json:"retry,omitempty"`
}

// Generate starts a generation and invokes fn for every stream event until
// the stream ends.
func (c *Client) Generate(req GenerateRequest, fn func(Event) error) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}
	resp, err := c.do("POST", "/api/generate", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return consumeSSE(resp.Body, fn)
}

// ResumeStream attaches to a chat's in-flight generation, if any. Returns
// false when there is nothing to resume.
func (c *Client) ResumeStream(chatID string, fn func(Event) error) (bool, error) {
	resp, err := c.do("GET", "/api/chats/"+chatID+"/stream", nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return false, nil
	}
	return true, consumeSSE(resp.Body, fn)
}

func consumeSSE(r io.Reader, fn func(Event) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev Event
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
			return fmt.Errorf("bad stream event: %w", err)
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// HealthResponse is the response from the health endpoint.
type HealthResponse struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Region    string                 `json:"region,omitempty"`
	Checks    map[string]interface{} `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// Health checks server health.
func (c *Client) Health() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.getJSON("/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

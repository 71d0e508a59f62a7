// Package api is the HTTP client for the training backend. Every call is a
// single fire-and-forget request: no retries, no deduplication.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avharris/repcoach/internal/model/chat"
	"github.com/avharris/repcoach/internal/model/scenario"
)

// RequestError covers both transport failures and non-2xx responses. Status
// is zero when the request never produced a response.
type RequestError struct {
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *RequestError) Error() string {
	if e.Status != 0 {
		if e.Detail != "" {
			return fmt.Sprintf("%s: backend returned %d: %s", e.Op, e.Status, e.Detail)
		}
		return fmt.Sprintf("%s: backend returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Op, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Client talks to the backend described in the wire contract.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL, e.g. "http://localhost:8080".
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type startChatRequest struct {
	SessionID  string `json:"session_id"`
	ScenarioID string `json:"scenario_id"`
}

type chatRequest struct {
	Message    string `json:"message"`
	SessionID  string `json:"session_id"`
	ScenarioID string `json:"scenario_id"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type feedbackRequest struct {
	History    chat.Transcript `json:"history"`
	ScenarioID string          `json:"scenario_id"`
}

type feedbackResponse struct {
	Feedback string `json:"feedback"`
}

type addScenarioResponse struct {
	Message string `json:"message"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Scenarios fetches the scenario catalog.
func (c *Client) Scenarios(ctx context.Context) ([]scenario.Scenario, error) {
	const op = "scenarios"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/static/scenarios.json", nil)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}

	var out []scenario.Scenario
	if err := c.do(op, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StartChat opens a conversation and returns the customer's first turn.
func (c *Client) StartChat(ctx context.Context, sessionID, scenarioID string) (string, error) {
	var out chatResponse
	err := c.postJSON(ctx, "start_chat", "/start_chat",
		startChatRequest{SessionID: sessionID, ScenarioID: scenarioID}, &out)
	return out.Response, err
}

// SendMessage forwards a representative message and returns the reply.
func (c *Client) SendMessage(ctx context.Context, message, sessionID, scenarioID string) (string, error) {
	var out chatResponse
	err := c.postJSON(ctx, "chat", "/chat",
		chatRequest{Message: message, SessionID: sessionID, ScenarioID: scenarioID}, &out)
	return out.Response, err
}

// Feedback submits the whole transcript and returns the raw coaching text.
func (c *Client) Feedback(ctx context.Context, history chat.Transcript, scenarioID string) (string, error) {
	var out feedbackResponse
	err := c.postJSON(ctx, "feedback", "/feedback",
		feedbackRequest{History: history, ScenarioID: scenarioID}, &out)
	return out.Feedback, err
}

// AddScenario submits a new scenario to the catalog.
func (c *Client) AddScenario(ctx context.Context, sc scenario.Scenario) (string, error) {
	var out addScenarioResponse
	err := c.postJSON(ctx, "add_scenario", "/add_scenario", sc, &out)
	return out.Message, err
}

func (c *Client) postJSON(ctx context.Context, op, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(op, req, out)
}

func (c *Client) do(op string, req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(resp.Body).Decode(&eb)
		return &RequestError{Op: op, Status: resp.StatusCode, Detail: eb.Detail}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &RequestError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

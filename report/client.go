// Package report uploads engagement records to a REST server built with babyapi
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calvinmclean/babyapi"

	"github.com/jonoromo/turret"
)

// Event is one firmware event attached to an Engagement
type Event struct {
	Time   time.Time         `json:"time"`
	Millis uint32            `json:"millis"`
	Level  string            `json:"level"`
	Msg    string            `json:"msg"`
	Fields map[string]string `json:"fields,omitempty"`
}

// NewEvent converts a parsed event line
func NewEvent(e turret.Event, now time.Time) Event {
	ev := Event{
		Time:   now,
		Millis: e.Millis,
		Level:  e.Level.String(),
		Msg:    e.Msg,
	}
	if len(e.Fields) > 0 {
		ev.Fields = make(map[string]string, len(e.Fields))
		for _, f := range e.Fields {
			ev.Fields[f.Key] = f.Value
		}
	}
	return ev
}

// Result is the outcome of an engagement, filled in from the fire.done event
type Result struct {
	Aim      int16   `json:"aim"`
	Position int64   `json:"position"`
	Setpoint float64 `json:"setpoint"`
	Fired    bool    `json:"fired"`
}

type Engagement struct {
	// include NilResource so we don't implement Render/Bind which are not needed
	*babyapi.NilResource

	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name,omitempty"`
	StartTime time.Time `json:"start_time,omitzero"`
	Result    *Result   `json:"result,omitempty"`
	Events    []Event   `json:"events,omitempty"`
}

func (e Engagement) GetID() string {
	return e.ID
}

type Client struct {
	client       *babyapi.Client[*Engagement]
	engagementID string
}

func NewClient(addr string) *Client {
	client := babyapi.NewClient[*Engagement](addr, "/engagements")
	return &Client{client: client}
}

// EngagementID is the ID returned by CreateEngagement
func (c *Client) EngagementID() string {
	return c.engagementID
}

func (c *Client) CreateEngagement(ctx context.Context, name string, start time.Time) (string, error) {
	resp, err := c.client.Post(ctx, &Engagement{
		Name:      name,
		StartTime: start,
	})
	if err != nil {
		return "", err
	}

	c.engagementID = resp.Data.GetID()

	return c.engagementID, nil
}

func (c *Client) SetResult(ctx context.Context, result Result) error {
	_, err := c.client.Patch(ctx, c.engagementID, &Engagement{Result: &result})
	return err
}

func (c *Client) AddEvent(ctx context.Context, e turret.Event, now time.Time) error {
	url, err := c.client.URL(c.engagementID)
	if err != nil {
		return fmt.Errorf("error building URL: %w", err)
	}

	return c.makeRequest(ctx, url+"/add-event", NewEvent(e, now))
}

func (c *Client) Done(ctx context.Context, now time.Time) error {
	url, err := c.client.URL(c.engagementID)
	if err != nil {
		return fmt.Errorf("error building URL: %w", err)
	}

	return c.makeRequest(ctx, url+"/done", map[string]any{"time": now})
}

func (c *Client) makeRequest(ctx context.Context, url string, body any) error {
	var bodyReader io.Reader = http.NoBody
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("error encoding body: %w", err)
		}

		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bodyReader)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Add("Content-Type", "application/json")

	resp, err := c.client.MakeGenericRequest(req, nil)
	if err != nil {
		return fmt.Errorf("error making request: %w", err)
	}
	if resp.Response.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status code: %d, response: %v", resp.Response.StatusCode, resp.Body)
	}

	return nil
}

package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mentorlink/mentor-api/internal/config"
	"github.com/mentorlink/mentor-api/pkg/circuitbreaker"
)

// Client is the external calendar collaborator. Both operations are
// best-effort from the appointment manager's perspective.
type Client interface {
	CreateEvent(ctx context.Context, req *CreateEventRequest) (*Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

type CreateEventRequest struct {
	Summary   string    `json:"summary"`
	Attendees []string  `json:"attendees"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Notes     string    `json:"notes,omitempty"`
}

type Event struct {
	EventID  string `json:"event_id"`
	JoinLink string `json:"join_link"`
}

type httpClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	cb      *circuitbreaker.CircuitBreaker
}

func NewHTTPClient(cfg config.CalendarConfig) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpClient{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "calendar",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
	}
}

func (c *httpClient) CreateEvent(ctx context.Context, req *CreateEventRequest) (*Event, error) {
	var event Event
	err := c.cb.Execute(func() error {
		body, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal event request: %w", err)
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("calendar request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return fmt.Errorf("calendar returned status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(&event); err != nil {
			return fmt.Errorf("failed to decode event response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (c *httpClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.cb.Execute(func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/events/"+eventID, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("calendar request failed: %w", err)
		}
		defer resp.Body.Close()

		// A missing event is already the desired end state.
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
			return fmt.Errorf("calendar returned status %d", resp.StatusCode)
		}
		return nil
	})
}

// Package mastertour is a read-only client for the Master Tour (Eventric)
// tour management API. Requests must be signed, so the client is normally
// pointed at an authenticating proxy and sends a bearer token to it.
package mastertour

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JonMunkholm/merchdesk/internal/config"
)

const apiPrefix = "/api/v5"

// ErrNotConfigured is returned when no base URL is set.
var ErrNotConfigured = errors.New("master tour client not configured")

// APIError is a non-2xx response or a response whose envelope reports
// failure.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("master tour returned %d: %s", e.Status, e.Message)
	}
	return "master tour request failed: " + e.Message
}

type Tour struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	Status    string `json:"status,omitempty"`
}

type Event struct {
	ID              string `json:"id"`
	DayID           string `json:"day_id"`
	Name            string `json:"name"`
	Venue           string `json:"venue,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Country         string `json:"country,omitempty"`
	AdvancingStatus string `json:"advancing_status,omitempty"`
	EventType       string `json:"event_type,omitempty"`
	StartTime       string `json:"start_time,omitempty"`
	EndTime         string `json:"end_time,omitempty"`
}

type GuestListEntry struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	Name       string `json:"name"`
	GuestCount int    `json:"guest_count"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
}

type SetListEntry struct {
	ID        string `json:"id"`
	EventID   string `json:"event_id"`
	SongName  string `json:"song_name"`
	SongOrder int    `json:"song_order"`
	Duration  int    `json:"duration,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type CrewMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Client calls the tour API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg config.MasterTourConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		token:      cfg.ProxyToken,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Tours(ctx context.Context) ([]Tour, error) {
	return list[Tour](ctx, c, "/tours")
}

func (c *Client) Tour(ctx context.Context, tourID string) (Tour, error) {
	return get[Tour](ctx, c, "/tour/"+url.PathEscape(tourID))
}

func (c *Client) TourCrew(ctx context.Context, tourID string) ([]CrewMember, error) {
	return list[CrewMember](ctx, c, "/tour/"+url.PathEscape(tourID)+"/crew")
}

// DayEvents lists the events scheduled on one tour day.
func (c *Client) DayEvents(ctx context.Context, dayID string) ([]Event, error) {
	return list[Event](ctx, c, "/day/"+url.PathEscape(dayID)+"/events")
}

func (c *Client) GuestList(ctx context.Context, eventID string) ([]GuestListEntry, error) {
	return list[GuestListEntry](ctx, c, "/event/"+url.PathEscape(eventID)+"/guestlist")
}

func (c *Client) SetList(ctx context.Context, eventID string) ([]SetListEntry, error) {
	return list[SetListEntry](ctx, c, "/event/"+url.PathEscape(eventID)+"/setlist")
}

// list treats a null data field as an empty list.
func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	items, err := get[[]T](ctx, c, path)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func get[T any](ctx context.Context, c *Client, path string) (T, error) {
	var zero T
	if c.baseURL == "" {
		return zero, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+path, nil)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "master tour request failed", "path", path, "error", err)
		return zero, fmt.Errorf("master tour %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return zero, &APIError{Status: resp.StatusCode, Message: msg}
	}

	var env envelope[T]
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, fmt.Errorf("decode master tour %s: %w", path, err)
	}
	if !env.Success {
		return zero, &APIError{Message: env.Message}
	}
	return env.Data, nil
}

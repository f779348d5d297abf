package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of an error body is kept.
	maxErrorBody = 4096
)

// Client calls the SmartHouse Core API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client

	timeout    time.Duration
	hasTimeout bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The client passed in is
// never modified; WithTimeout applies to a copy of it.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout regardless of option order.
// Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
		c.hasTimeout = true
	}
}

// New returns a client for the server at baseURL, e.g. "http://127.0.0.1:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hasTimeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c
}

// DeviceIDs lists every device id. Ids are returned trimmed.
func (c *Client) DeviceIDs(ctx context.Context) ([]string, error) {
	return c.idList(ctx, "/devices-list")
}

// RoomIDs returns the id report of all rooms.
func (c *Client) RoomIDs(ctx context.Context) (string, error) {
	var text string
	err := c.get(ctx, "/rooms-list", &text)
	return text, err
}

// HouseIDs lists every house id. Ids are returned trimmed.
func (c *Client) HouseIDs(ctx context.Context) ([]string, error) {
	return c.idList(ctx, "/house-list")
}

// Device fetches one device.
func (c *Client) Device(ctx context.Context, id string) (*Device, error) {
	var d Device
	if err := c.get(ctx, entityPath("device", id), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Room fetches one room.
func (c *Client) Room(ctx context.Context, id string) (*Room, error) {
	var r Room
	if err := c.get(ctx, entityPath("room", id), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// House fetches one house.
func (c *Client) House(ctx context.Context, id string) (*House, error) {
	var h House
	if err := c.get(ctx, entityPath("house", id), &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// DeviceVariable fetches a device's variable.
func (c *Client) DeviceVariable(ctx context.Context, id string) (int32, error) {
	var v int32
	err := c.get(ctx, entityPath("device", id)+"/var", &v)
	return v, err
}

// ToggleDevice flips a device's state and returns the updated device.
func (c *Client) ToggleDevice(ctx context.Context, id string) (*Device, error) {
	var d Device
	if err := c.get(ctx, entityPath("device", id)+"/state", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// RemoveDevice deletes a device and returns the value it had.
func (c *Client) RemoveDevice(ctx context.Context, id string) (*Device, error) {
	var d Device
	if err := c.get(ctx, entityPath("device", id)+"/remove", &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// RemoveRoom deletes an empty room and returns the value it had.
func (c *Client) RemoveRoom(ctx context.Context, id string) (*Room, error) {
	var r Room
	if err := c.get(ctx, entityPath("room", id)+"/remove", &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// RemoveHouse deletes an empty house and returns the value it had.
func (c *Client) RemoveHouse(ctx context.Context, id string) (*House, error) {
	var h House
	if err := c.get(ctx, entityPath("house", id)+"/remove", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// HouseRooms maps the names of a house's rooms to their ids.
func (c *Client) HouseRooms(ctx context.Context, houseID string) (map[string]string, error) {
	var index map[string]string
	if err := c.get(ctx, entityPath("house", houseID)+"/list", &index); err != nil {
		return nil, err
	}
	return index, nil
}

// RoomDevices lists the ids of a room's devices. Ids are returned trimmed.
func (c *Client) RoomDevices(ctx context.Context, roomID string) ([]string, error) {
	return c.idList(ctx, entityPath("room", roomID)+"/list")
}

// Report returns the device report of a house.
func (c *Client) Report(ctx context.Context, houseID string) (string, error) {
	var text string
	err := c.get(ctx, entityPath("report", houseID), &text)
	return text, err
}

// CreateDevice adds a device to an existing room.
func (c *Client) CreateDevice(ctx context.Context, nd NewDevice) (*Device, error) {
	var d Device
	if err := c.post(ctx, "/device", nd, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateRoom adds a room to an existing house.
func (c *Client) CreateRoom(ctx context.Context, nr NewRoom) (*Room, error) {
	var r Room
	if err := c.post(ctx, "/room", nr, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// CreateHouse adds a house.
func (c *Client) CreateHouse(ctx context.Context, nh NewHouse) (*House, error) {
	var h House
	if err := c.post(ctx, "/house", nh, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func entityPath(entity, id string) string {
	return "/" + entity + "/" + url.PathEscape(id)
}

// idList decodes an id list and strips the trailing space the server keeps
// on each element.
func (c *Client) idList(ctx context.Context, path string) ([]string, error) {
	var ids []string
	if err := c.get(ctx, path, &ids); err != nil {
		return nil, err
	}
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}
	return ids, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)) //nolint:errcheck // Best-effort error body
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

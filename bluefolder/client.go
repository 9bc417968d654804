// Package bluefolder is a client for the BlueFolder field-service API.
// All calls go through a bounded rate-limit retry policy; lookup-heavy
// operations are cached by the enrichment layer.
package bluefolder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const DefaultBaseURL = "https://app.bluefolder.com/api/2.0/json/"

type Client struct {
	http        *http.Client
	baseURL     *url.URL
	apiKey      string
	accountName string

	retry *RetryPolicy
	log   zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithBaseURL(raw string) Option {
	return func(c *Client) {
		if u, err := url.Parse(raw); err == nil {
			c.baseURL = u
		}
	}
}

func WithRetryPolicy(p *RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New creates a BlueFolder client. apiKey and accountName are required.
func New(apiKey, accountName string, opts ...Option) (*Client, error) {
	if apiKey == "" || accountName == "" {
		return nil, errors.New("bluefolder: apiKey and accountName required")
	}
	u, _ := url.Parse(DefaultBaseURL)
	c := &Client{
		http:        &http.Client{Timeout: 15 * time.Second},
		baseURL:     u,
		apiKey:      apiKey,
		accountName: accountName,
		log:         zerolog.Nop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.retry == nil {
		c.retry = NewRetryPolicy(c.log)
	}
	return c, nil
}

// call POSTs one {"method", "params"} envelope and decodes the response into
// out. A 429 comes back as *RateLimitError so the retry policy can act on it.
func (c *Client) call(ctx context.Context, method string, params, out any) error {
	payload := struct {
		Method string `json:"method"`
		Params any    `json:"params"`
	}{Method: method, Params: params}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL.String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("ApiKey", c.apiKey)
	req.Header.Set("X-Account-Name", c.accountName)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("bluefolder: %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("bluefolder: %s: read response: %w", method, err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{Message: errorMessage(raw)}
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("bluefolder: %s: %s: %s", method, resp.Status, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("bluefolder: %s: decode response: %w", method, err)
	}
	return nil
}

// errorMessage pulls the human-readable message out of an error body,
// falling back to the raw text.
func errorMessage(raw []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return string(raw)
}

// doRetried runs one API call under the rate-limit retry policy.
func (c *Client) doRetried(ctx context.Context, method string, params, out any) error {
	return c.retry.Do(ctx, method, func() error {
		return c.call(ctx, method, params, out)
	})
}

// AssignmentsForUser lists a technician's assignments scheduled in the given
// BlueFolder-formatted date range (see DayRange).
func (c *Client) AssignmentsForUser(ctx context.Context, userID int, start, end string) ([]Assignment, error) {
	params := map[string]any{
		"filter": map[string]any{
			"userId":        userID,
			"startDate":     start,
			"endDate":       end,
			"dateRangeType": "scheduled",
		},
	}
	var resp struct {
		Assignments []Assignment `json:"assignments"`
	}
	if err := c.doRetried(ctx, "assignment.list", params, &resp); err != nil {
		return nil, err
	}
	return resp.Assignments, nil
}

// ServiceRequest fetches one ticket by id.
func (c *Client) ServiceRequest(ctx context.Context, srID int) (*ServiceRequest, error) {
	params := map[string]any{"serviceRequestID": srID}
	var resp struct {
		ServiceRequest *ServiceRequest `json:"serviceRequest"`
	}
	if err := c.doRetried(ctx, "serviceRequest.get", params, &resp); err != nil {
		return nil, err
	}
	if resp.ServiceRequest == nil {
		return nil, fmt.Errorf("bluefolder: serviceRequest.get: no record for id %d", srID)
	}
	return resp.ServiceRequest, nil
}

// CustomerLocation fetches one service address.
func (c *Client) CustomerLocation(ctx context.Context, customerID, locationID int) (*Location, error) {
	params := map[string]any{
		"customerID":         customerID,
		"customerLocationID": locationID,
	}
	var resp struct {
		Location *Location `json:"customerLocation"`
	}
	if err := c.doRetried(ctx, "customerLocation.get", params, &resp); err != nil {
		return nil, err
	}
	if resp.Location == nil {
		return nil, fmt.Errorf("bluefolder: customerLocation.get: no record for %d:%d", customerID, locationID)
	}
	return resp.Location, nil
}

// ActiveUsers lists the technician roster.
func (c *Client) ActiveUsers(ctx context.Context) ([]User, error) {
	params := map[string]any{"filter": map[string]any{"active": true}}
	var resp struct {
		Users []User `json:"users"`
	}
	if err := c.doRetried(ctx, "user.list", params, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// User fetches one technician record.
func (c *Client) User(ctx context.Context, userID int) (*User, error) {
	params := map[string]any{"userID": userID}
	var resp struct {
		User *User `json:"user"`
	}
	if err := c.doRetried(ctx, "user.get", params, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil {
		return nil, fmt.Errorf("bluefolder: user.get: no record for id %d", userID)
	}
	return resp.User, nil
}

// RouteURLField is the user custom field the daily route link is written to.
// It holds at most 255 characters, which is why long URLs go through the
// shortener first.
const RouteURLField = "link2Url"

// UpdateRouteURL writes the finished route URL back to the technician record.
func (c *Client) UpdateRouteURL(ctx context.Context, userID int, routeURL string) error {
	params := map[string]any{
		"userID": userID,
		"fields": map[string]string{RouteURLField: routeURL},
	}
	return c.doRetried(ctx, "user.update", params, nil)
}

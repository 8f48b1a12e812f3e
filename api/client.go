// Package api is a client for the BrewSignal backend REST API and its live
// reading stream.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/brewsignal/brewsignal/calibration"
	"github.com/brewsignal/brewsignal/config"
)

// Error is an error response from the backend.
type Error struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("backend: %s (%s)", e.Message, http.StatusText(e.StatusCode))
}

// Client is a BrewSignal backend API client.
type Client struct {
	cfg  *config.BackendConfig
	http *http.Client
}

// NewClient returns a new Client for the backend described by cfg.
func NewClient(cfg *config.BackendConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return strings.TrimSuffix(c.cfg.URL, "/")
}

func (c *Client) do(ctx context.Context, method, path string, body, v any) error {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL()+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// Devices returns every hydrometer registered with the backend.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devs []Device
	err := c.do(ctx, http.MethodGet, "/devices", nil, &devs)
	return devs, err
}

// Device returns the hydrometer with the given id.
func (c *Client) Device(ctx context.Context, id string) (*Device, error) {
	var dev Device
	if err := c.do(ctx, http.MethodGet, "/devices/"+id, nil, &dev); err != nil {
		return nil, err
	}
	return &dev, nil
}

// LatestReading returns the most recent raw reading of the device.
func (c *Client) LatestReading(ctx context.Context, deviceID string) (*Reading, error) {
	var r Reading
	if err := c.do(ctx, http.MethodGet, "/devices/"+deviceID+"/readings/latest", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Batches returns every fermentation batch.
func (c *Client) Batches(ctx context.Context) ([]Batch, error) {
	var batches []Batch
	err := c.do(ctx, http.MethodGet, "/batches", nil, &batches)
	return batches, err
}

// Batch returns the batch with the given id.
func (c *Client) Batch(ctx context.Context, id string) (*Batch, error) {
	var b Batch
	if err := c.do(ctx, http.MethodGet, "/batches/"+id, nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Recipes returns every stored recipe.
func (c *Client) Recipes(ctx context.Context) ([]Recipe, error) {
	var recipes []Recipe
	err := c.do(ctx, http.MethodGet, "/recipes", nil, &recipes)
	return recipes, err
}

// Recipe returns the recipe with the given id.
func (c *Client) Recipe(ctx context.Context, id string) (*Recipe, error) {
	var r Recipe
	if err := c.do(ctx, http.MethodGet, "/recipes/"+id, nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Calibration returns the stored calibration record of the device.
func (c *Client) Calibration(ctx context.Context, deviceID string) (*calibration.Record, error) {
	var rec calibration.Record
	if err := c.do(ctx, http.MethodGet, "/devices/"+deviceID+"/calibration", nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveCalibration replaces the device's calibration record with rec and
// returns the record as stored by the backend.
func (c *Client) SaveCalibration(ctx context.Context, deviceID string, rec *calibration.Record) (*calibration.Record, error) {
	var stored calibration.Record
	if err := c.do(ctx, http.MethodPut, "/devices/"+deviceID+"/calibration", rec, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

// SystemInfo returns version and counts of the backend instance.
func (c *Client) SystemInfo(ctx context.Context) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.do(ctx, http.MethodGet, "/system", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

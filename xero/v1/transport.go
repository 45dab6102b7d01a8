package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type Response struct {
	Data []byte
}

// Transport handles low-level HTTP and authentication. Token lifecycle is an
// external concern; the transport is constructed from an already-valid
// access token and tenant ID.
type Transport struct {
	BaseURL    string
	AuthToken  string
	TenantID   string
	HTTPClient *http.Client
}

// NewTransport creates a transport with base URL, bearer token and tenant
func NewTransport(baseURL, token, tenantID string) *Transport {
	return &Transport{
		BaseURL:    baseURL,
		AuthToken:  token,
		TenantID:   tenantID,
		HTTPClient: &http.Client{},
	}
}

// helper: build full URL with query params
func (t *Transport) buildURL(path string, query map[string]string) string {
	u, _ := url.Parse(t.BaseURL + path)
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func (t *Transport) setHeaders(req *http.Request, extra map[string]string) {
	req.Header.Set("Accept", "application/json")
	if t.AuthToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.AuthToken))
	}
	if t.TenantID != "" {
		req.Header.Set("Xero-Tenant-Id", t.TenantID)
	}
	for k, v := range extra {
		req.Header.Set(k, v)
	}
}

// Post sends a POST request with JSON body
func (t *Transport) Post(ctx context.Context, path string, data any, headers map[string]string) (*Response, error) {
	fullURL := t.buildURL(path, nil)

	body, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	t.setHeaders(req, headers)

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	resdata, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		return nil, newStatusError(http.MethodPost, path, resp.StatusCode, resdata)
	}

	return &Response{Data: resdata}, nil
}

// Get sends a GET request
func (t *Transport) Get(ctx context.Context, path string, query map[string]string) (*Response, error) {
	fullURL := t.buildURL(path, query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	t.setHeaders(req, nil)

	resp, err := t.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	resdata, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		return nil, newStatusError(http.MethodGet, path, resp.StatusCode, resdata)
	}

	return &Response{Data: resdata}, nil
}

// StatusError is a non-2xx response from the Xero API. Validation failures
// surface the messages Xero nests under Elements/ValidationErrors.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s failed with status code %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

func newStatusError(method, path string, status int, body []byte) *StatusError {
	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: status,
		Message:    parseErrorBody(body),
	}
}

func parseErrorBody(body []byte) string {
	var parsed struct {
		Message  string `json:"Message"`
		Detail   string `json:"Detail"`
		Elements []struct {
			ValidationErrors []struct {
				Message string `json:"Message"`
			} `json:"ValidationErrors"`
		} `json:"Elements"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return string(body)
	}

	var msgs []string
	for _, el := range parsed.Elements {
		for _, ve := range el.ValidationErrors {
			msgs = append(msgs, ve.Message)
		}
	}
	if len(msgs) > 0 {
		out := msgs[0]
		for _, m := range msgs[1:] {
			out += "; " + m
		}
		return out
	}
	if parsed.Message != "" {
		return parsed.Message
	}
	if parsed.Detail != "" {
		return parsed.Detail
	}
	return string(body)
}

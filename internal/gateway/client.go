package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "http://127.0.0.1:3000"
	DefaultTimeout = 10 * time.Second

	// NetworkMessage is shown for connectivity failures and timeouts.
	NetworkMessage = "Unable to connect to the server. Please check your internet connection."
)

type Kind int

const (
	KindNetwork Kind = iota + 1
	KindServer
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is the failure half of every gateway call.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindServer:
		if strings.TrimSpace(e.Message) == "" {
			return fmt.Sprintf("request failed with status %d", e.StatusCode)
		}
		return e.Message
	case KindCanceled:
		return "request canceled"
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", NetworkMessage, e.Err)
		}
		return NetworkMessage
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsCanceled is the cancellation marker: cancelled requests are not failures
// and must not be logged or shown.
func IsCanceled(err error) bool {
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind == KindCanceled
	}
	return errors.Is(err, context.Canceled)
}

// Message picks the text to show the user for err: the server's own message
// when it sent one, the connectivity message for network failures, and
// fallback otherwise.
func Message(err error, fallback string) string {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		return fallback
	}
	switch gwErr.Kind {
	case KindNetwork:
		return NetworkMessage
	case KindServer:
		if strings.TrimSpace(gwErr.Message) != "" {
			return gwErr.Message
		}
	}
	return fallback
}

type Options struct {
	Timeout time.Duration
	// InsecureSkipVerify accepts self-signed certificates. Development only.
	InsecureSkipVerify bool
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// New builds a client with its own transport configured from opts.
func New(baseURL string, opts Options) *HTTPClient {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.InsecureSkipVerify {
		log.Printf("gateway: TLS certificate verification disabled for %s", baseURL)
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return NewHTTPClient(baseURL, &http.Client{
		Timeout:   timeout,
		Transport: transport,
	})
}

func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: KindCanceled, Err: ctx.Err()}
		}
		return &Error{Kind: KindNetwork, Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		gwErr := Error{Kind: KindServer, StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			gwErr.Message = strings.TrimSpace(payload.Message)
			if gwErr.Message == "" {
				gwErr.Message = strings.TrimSpace(payload.Error)
			}
		}
		return &gwErr
	}

	if responseBody == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(responseBody); err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: KindCanceled, Err: ctx.Err()}
		}
		return &Error{Kind: KindServer, StatusCode: response.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}

	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

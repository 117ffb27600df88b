package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"

	"github.com/kamalnath14061995/IndusionCricket-sub001/authfetch"
	"github.com/pkg/errors"
)

// Fetcher is implemented by *authfetch.Client.
type Fetcher interface {
	Do(ctx context.Context, req *authfetch.Request) (*http.Response, error)
}

// Client talks to the academy backend. Every response is narrowed from the
// {success, data, message, errors} envelope into an explicit type.
type Client struct {
	fetch Fetcher
}

func New(fetch Fetcher) *Client {
	return &Client{fetch: fetch}
}

// APIError is a response the backend produced but that did not succeed.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend responded %d", e.Status)
	}
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports a 401 that survived the refresh-and-retry.
func IsUnauthorized(err error) bool {
	apiErr, ok := errors.Cause(err).(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// IsTransient reports failures worth repeating with the same idempotency
// key: transport errors, timeouts, throttling and 5xx.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	apiErr, ok := errors.Cause(err).(*APIError)
	if !ok {
		return true
	}
	switch {
	case apiErr.Status >= 500:
		return true
	case apiErr.Status == http.StatusRequestTimeout, apiErr.Status == http.StatusTooManyRequests:
		return true
	}
	return false
}

type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) > 0 {
		return e.Errors[0].Message
	}
	return ""
}

func (c *Client) call(ctx context.Context, method, path string, header http.Header, body interface{}, out interface{}) error {
	return c.do(ctx, method, path, header, body, out, true)
}

// callOptional is call for endpoints whose data may be absent.
func (c *Client) callOptional(ctx context.Context, method, path string, header http.Header, body interface{}, out interface{}) error {
	return c.do(ctx, method, path, header, body, out, false)
}

func (c *Client) do(ctx context.Context, method, path string, header http.Header, body interface{}, out interface{}, requireData bool) error {
	response, err := c.fetch.Do(ctx, &authfetch.Request{
		Method: method,
		Path:   path,
		Header: header,
		JSON:   body,
	})
	if err != nil {
		return err
	}
	defer response.Body.Close()

	responseBody, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return errors.Wrapf(err, "failed reading %s %s response", method, path)
	}

	var env envelope
	parseErr := json.Unmarshal(responseBody, &env)

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return &APIError{Status: response.StatusCode, Message: env.message()}
	}
	if parseErr != nil {
		return errors.Wrapf(parseErr, "failed unmarshaling %s %s response", method, path)
	}
	if env.Success != nil && !*env.Success {
		return &APIError{Status: response.StatusCode, Message: env.message()}
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		if !requireData {
			return nil
		}
		return errors.Errorf("%s %s: response without data", method, path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrapf(err, "failed unmarshaling %s %s data", method, path)
	}
	return nil
}

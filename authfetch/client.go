package authfetch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/kamalnath14061995/IndusionCricket-sub001/credentials"
	"github.com/kamalnath14061995/IndusionCricket-sub001/helpers"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	RefreshPath     = "/api/auth/refresh"
	jsonContentType = `application/json`
)

// Doer is satisfied by *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Request describes one call. JSON is marshalled and sent as
// application/json unless the caller set a Content-Type. Body is sent as
// given (byte streams, multipart forms) and no Content-Type is injected.
type Request struct {
	Method string
	Path   string
	Header http.Header
	JSON   interface{}
	Body   io.Reader
}

// Client issues requests against the academy backend and recovers from an
// expired access token with one refresh and one retry.
type Client struct {
	BaseURL string
	HTTP    Doer
	Store   credentials.Store
	Logger  *log.Entry

	refresher *credentials.Refresher
}

func New(baseURL string, httpClient Doer, store credentials.Store) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    httpClient,
		Store:   store,
		Logger:  log.WithField("component", "authfetch"),
	}
	c.refresher = credentials.NewRefresher(store, c.refresh)
	return c
}

// Do sends req. A 401 triggers at most one refresh and one retry; the retry's
// response is returned whatever it is. When no refresh is possible the
// original 401 response is returned untouched. Transport errors propagate.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	body, err := req.payload()
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	for k, v := range req.Header {
		header[k] = append([]string(nil), v...)
	}
	if req.JSON != nil && header.Get("Content-Type") == "" {
		header.Set("Content-Type", jsonContentType)
	}
	if header.Get("X-Request-ID") == "" {
		header.Set("X-Request-ID", uuid.New().String())
	}

	var usedAccess string
	if header.Get("Authorization") == "" {
		if token := c.Store.Get().AccessToken; helpers.LooksLikeJWT(token) {
			header.Set("Authorization", "Bearer "+token)
			usedAccess = token
		}
	}

	logger := c.Logger.WithFields(log.Fields{
		"request_id": header.Get("X-Request-ID"),
		"method":     req.Method,
		"path":       req.Path,
	})

	response, err := c.send(ctx, req.Method, req.Path, header, body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusUnauthorized {
		return response, nil
	}

	pair, err := c.refresher.Refresh(ctx, usedAccess)
	if err != nil {
		switch errors.Cause(err) {
		case credentials.ErrNoRefreshToken, credentials.ErrRefreshRejected:
			logger.WithField("reason", err.Error()).Warn("token refresh not possible")
			return response, nil
		}
		response.Body.Close()
		return nil, errors.Wrap(err, "token refresh failed")
	}

	io.Copy(ioutil.Discard, response.Body)
	response.Body.Close()

	header.Set("Authorization", "Bearer "+pair.AccessToken)
	logger.Info("retrying request with refreshed token")
	return c.send(ctx, req.Method, req.Path, header, body)
}

func (c *Client) send(ctx context.Context, method, path string, header http.Header, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, err
	}
	httpReq.Header = header.Clone()
	return c.HTTP.Do(httpReq)
}

func (c *Client) refresh(ctx context.Context, refreshToken string) (credentials.Pair, error) {
	requestBody, err := json.Marshal(&models.RefreshOpts{RefreshToken: refreshToken})
	if err != nil {
		return credentials.Pair{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url(RefreshPath), bytes.NewReader(requestBody))
	if err != nil {
		return credentials.Pair{}, err
	}
	httpReq.Header.Set("Content-Type", jsonContentType)
	httpReq.Header.Set("X-Request-ID", uuid.New().String())

	response, err := c.HTTP.Do(httpReq)
	if err != nil {
		return credentials.Pair{}, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return credentials.Pair{}, errors.Wrapf(credentials.ErrRefreshRejected, "bad response %d", response.StatusCode)
	}

	var parsed models.RefreshResponse
	if err := json.NewDecoder(response.Body).Decode(&parsed); err != nil {
		return credentials.Pair{}, errors.Wrap(credentials.ErrRefreshRejected, "unreadable refresh response")
	}
	if !parsed.Success || parsed.Data == nil || parsed.Data.AccessToken == "" {
		return credentials.Pair{}, errors.Wrap(credentials.ErrRefreshRejected, "refresh response without credentials")
	}

	return credentials.Pair{
		AccessToken:  parsed.Data.AccessToken,
		RefreshToken: parsed.Data.RefreshToken,
	}, nil
}

func (c *Client) url(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.BaseURL + path
}

func (r *Request) payload() ([]byte, error) {
	if r.JSON != nil {
		b, err := json.Marshal(r.JSON)
		return b, errors.Wrap(err, "failed marshaling request body")
	}
	if r.Body != nil {
		b, err := ioutil.ReadAll(r.Body)
		return b, errors.Wrap(err, "failed reading request body")
	}
	return nil, nil
}

package checkout

import (
	"context"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

const DefaultSDKLoadTimeout = 15 * time.Second

// LoadError reports a gateway SDK that could not be loaded. Code is
// SDK_LOAD_TIMEOUT or SDK_LOAD_FAILED.
type LoadError struct {
	Code string
	URL  string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Code, e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ScriptLoader fetches a gateway checkout SDK once per loader. Concurrent
// callers share the in-flight fetch. A success is remembered; a failure
// is not, so a later call tries again.
type ScriptLoader struct {
	URL     string
	HTTP    *http.Client
	Timeout time.Duration

	mu     sync.RWMutex
	loaded bool
	size   int
	group  singleflight.Group
}

func NewScriptLoader(url string, httpClient *http.Client, timeout time.Duration) *ScriptLoader {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = DefaultSDKLoadTimeout
	}
	return &ScriptLoader{URL: url, HTTP: httpClient, Timeout: timeout}
}

func (l *ScriptLoader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

// EnsureLoaded returns once the SDK is loaded or ctx is done. The shared
// fetch is bounded by Timeout only, so one caller giving up does not fail
// the others waiting on it.
func (l *ScriptLoader) EnsureLoaded(ctx context.Context) error {
	if l.Loaded() {
		return nil
	}
	flight := l.group.DoChan(l.URL, func() (interface{}, error) {
		if l.Loaded() {
			return nil, nil
		}
		size, err := l.fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		l.mu.Lock()
		l.loaded = true
		l.size = size
		l.mu.Unlock()
		return nil, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case result := <-flight:
		return result.Err
	}
}

func (l *ScriptLoader) fetch(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	fail := func(err error) (int, error) {
		code := models.ErrCodeSDKLoadFailed
		if ctx.Err() == context.DeadlineExceeded {
			code = models.ErrCodeSDKLoadTimeout
		}
		return 0, &LoadError{Code: code, URL: l.URL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return fail(err)
	}
	response, err := l.HTTP.Do(req)
	if err != nil {
		return fail(err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return fail(errors.Errorf("bad response %d", response.StatusCode))
	}
	body, err := ioutil.ReadAll(response.Body)
	if err != nil {
		return fail(err)
	}
	if len(body) == 0 {
		return fail(errors.New("empty script"))
	}
	return len(body), nil
}

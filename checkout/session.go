// Package checkout holds the pieces both gateway adapters share: checkout
// sessions settled by callbacks posted to the local checkout server, the
// gateway SDK loader and the launcher that shows the checkout page.
package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Kind string

const (
	KindComplete  Kind = "complete"
	KindApproved  Kind = "approved"
	KindFailed    Kind = "failed"
	KindDismissed Kind = "dismissed"
)

var (
	ErrUnknownSession = errors.New("unknown checkout session")
	ErrAlreadySettled = errors.New("checkout session already settled")
)

// Callback is the terminal event a checkout page reports.
type Callback struct {
	Kind      Kind
	PaymentID string
	OrderID   string
	Signature string
	PayerID   string
	Code      string
	Message   string
}

// Session is one open checkout. It settles exactly once; later callbacks
// are rejected.
type Session struct {
	ID      string
	Gateway string
	OrderID string
	Page    []byte
	Created time.Time

	once   sync.Once
	done   chan struct{}
	result Callback
}

// Settle records cb if the session is still open and reports whether it did.
func (s *Session) Settle(cb Callback) bool {
	settled := false
	s.once.Do(func() {
		s.result = cb
		settled = true
		close(s.done)
	})
	return settled
}

func (s *Session) Wait(ctx context.Context) (Callback, error) {
	select {
	case <-s.done:
		return s.result, nil
	case <-ctx.Done():
		return Callback{}, ctx.Err()
	}
}

// Registry tracks open sessions for the checkout server.
type Registry struct {
	baseURL string

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry takes the URL the checkout server is reachable at from the
// browser, e.g. http://127.0.0.1:8765.
func NewRegistry(baseURL string) *Registry {
	return &Registry{
		baseURL:  strings.TrimRight(baseURL, "/"),
		sessions: make(map[string]*Session),
	}
}

func (r *Registry) BaseURL() string {
	return r.baseURL
}

// Open registers a session and renders its page. render receives the URL
// the page posts its callbacks under.
func (r *Registry) Open(gateway, orderID string, render func(callbackURL string) ([]byte, error)) (*Session, error) {
	s := &Session{
		ID:      uuid.New().String(),
		Gateway: gateway,
		OrderID: orderID,
		Created: time.Now(),
		done:    make(chan struct{}),
	}
	page, err := render(r.CallbackURL(s))
	if err != nil {
		return nil, errors.Wrap(err, "failed rendering checkout page")
	}
	s.Page = page

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s, nil
}

func (r *Registry) PageURL(s *Session) string {
	return r.baseURL + "/checkout/" + s.ID
}

func (r *Registry) CallbackURL(s *Session) string {
	return r.baseURL + "/checkout/" + s.ID
}

func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	return s, ok
}

func (r *Registry) Settle(id string, cb Callback) error {
	s, ok := r.Get(id)
	if !ok {
		return ErrUnknownSession
	}
	if !s.Settle(cb) {
		return ErrAlreadySettled
	}
	return nil
}

// SettleByOrder settles the open session of gateway for orderID. Redirect
// based flows only know the gateway order id.
func (r *Registry) SettleByOrder(gateway, orderID string, cb Callback) error {
	r.mu.RLock()
	var found *Session
	for _, s := range r.sessions {
		if s.Gateway == gateway && s.OrderID == orderID {
			found = s
			break
		}
	}
	r.mu.RUnlock()
	if found == nil {
		return ErrUnknownSession
	}
	if !found.Settle(cb) {
		return ErrAlreadySettled
	}
	return nil
}

func (r *Registry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

package policy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ConfigSource is implemented by *backend.Client.
type ConfigSource interface {
	GetPaymentConfig(ctx context.Context) (*models.PaymentConfig, error)
	PutPaymentConfig(ctx context.Context, cfg *models.PaymentConfig) (*models.PaymentConfig, error)
}

// NotAllowedError is returned by Check when a method is not offered to a user.
type NotAllowedError struct {
	UserID string
	Method models.MethodKey
	Reason string
}

func (e *NotAllowedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("payment method %s not allowed for user %s: %s", e.Method, e.UserID, e.Reason)
	}
	return fmt.Sprintf("payment method %s not allowed for user %s", e.Method, e.UserID)
}

// Cache is a read-through cache of the admin payment config. Writes always
// go to the backend first; the cache only ever holds what the backend said.
type Cache struct {
	source ConfigSource
	ttl    time.Duration
	now    func() time.Time

	mu      sync.RWMutex
	cfg     *models.PaymentConfig
	fetched time.Time
	group   singleflight.Group
}

func NewCache(source ConfigSource, ttl time.Duration) *Cache {
	return &Cache{source: source, ttl: ttl, now: time.Now}
}

// Config returns the shared cached value; Clone it before changing it.
func (c *Cache) Config(ctx context.Context) (*models.PaymentConfig, error) {
	c.mu.RLock()
	cfg, fetched := c.cfg, c.fetched
	c.mu.RUnlock()
	if cfg != nil && c.now().Sub(fetched) < c.ttl {
		return cfg, nil
	}

	v, err, _ := c.group.Do("config", func() (interface{}, error) {
		fresh, err := c.source.GetPaymentConfig(ctx)
		if err != nil {
			return nil, err
		}
		c.store(fresh)
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.PaymentConfig), nil
}

// Allowed resolves the effective methods for userID from the cached config.
func (c *Cache) Allowed(ctx context.Context, userID string) (MethodSet, error) {
	cfg, err := c.Config(ctx)
	if err != nil {
		return nil, err
	}
	return Resolve(userID, cfg), nil
}

// Check is the pre-flight test callers run before starting a checkout.
func (c *Cache) Check(ctx context.Context, userID string, method models.MethodKey) error {
	cfg, err := c.Config(ctx)
	if err != nil {
		return err
	}
	if Resolve(userID, cfg).Has(method) {
		return nil
	}
	notAllowed := &NotAllowedError{UserID: userID, Method: method}
	if r, ok := cfg.Restrictions[userID]; ok && r.Blocked {
		notAllowed.Reason = r.Reason
	}
	return notAllowed
}

// Update saves cfg through the backend and caches what it returned.
func (c *Cache) Update(ctx context.Context, cfg *models.PaymentConfig) (*models.PaymentConfig, error) {
	saved, err := c.source.PutPaymentConfig(ctx, cfg)
	if err != nil {
		c.Invalidate()
		return nil, err
	}
	c.store(saved)
	log.WithField("enabled", saved.EnabledKeys()).Info("payment config updated")
	return saved, nil
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.cfg = nil
	c.mu.Unlock()
}

func (c *Cache) store(cfg *models.PaymentConfig) {
	c.mu.Lock()
	c.cfg = cfg
	c.fetched = c.now()
	c.mu.Unlock()
}

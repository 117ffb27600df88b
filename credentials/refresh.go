package credentials

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrNoRefreshToken means there is nothing to refresh with.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrRefreshRejected means the refresh endpoint answered but did not
	// issue new credentials.
	ErrRefreshRejected = errors.New("refresh rejected")
)

// RefreshTimeout bounds the shared refresh round trip.
const RefreshTimeout = 30 * time.Second

// RefreshFunc exchanges a refresh token for a new pair. It returns
// ErrRefreshRejected when the backend refuses, and any other error for
// transport failures.
type RefreshFunc func(ctx context.Context, refreshToken string) (Pair, error)

// Refresher serializes token refreshes for one Store: concurrent callers
// holding the same refresh token share a single round trip.
type Refresher struct {
	store   Store
	refresh RefreshFunc
	group   singleflight.Group
}

func NewRefresher(store Store, refresh RefreshFunc) *Refresher {
	return &Refresher{store: store, refresh: refresh}
}

// Refresh returns a pair whose access token should replace usedAccess.
// usedAccess is the stored access token the failed request was sent with,
// or "" when the request did not use the stored token. If the stored token
// already moved past usedAccess another caller refreshed first and no
// round trip is made.
func (r *Refresher) Refresh(ctx context.Context, usedAccess string) (Pair, error) {
	current := r.store.Get()
	if usedAccess != "" && current.AccessToken != "" && current.AccessToken != usedAccess {
		return current, nil
	}
	if current.RefreshToken == "" {
		return Pair{}, ErrNoRefreshToken
	}

	flight := r.group.DoChan(current.RefreshToken, func() (interface{}, error) {
		// a flight for this token may have finished between Get and Do
		if latest := r.store.Get(); latest != current {
			if latest.AccessToken == "" {
				return Pair{}, ErrNoRefreshToken
			}
			return latest, nil
		}
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RefreshTimeout)
		defer cancel()
		pair, err := r.refresh(refreshCtx, current.RefreshToken)
		if err != nil {
			return Pair{}, err
		}
		if pair.AccessToken == "" {
			return Pair{}, ErrRefreshRejected
		}
		if pair.RefreshToken == "" {
			pair.RefreshToken = current.RefreshToken
		}
		r.store.Set(pair)
		return pair, nil
	})

	select {
	case <-ctx.Done():
		return Pair{}, ctx.Err()
	case result := <-flight:
		if result.Err != nil {
			return Pair{}, result.Err
		}
		return result.Val.(Pair), nil
	}
}

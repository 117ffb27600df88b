// Package policy decides which payment methods a user may use.
package policy

import (
	"sort"

	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
)

type MethodSet map[models.MethodKey]struct{}

func (s MethodSet) Has(key models.MethodKey) bool {
	_, ok := s[key]
	return ok
}

func (s MethodSet) Len() int {
	return len(s)
}

// Keys returns the methods in a stable order.
func (s MethodSet) Keys() []models.MethodKey {
	keys := make([]models.MethodKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Resolve returns the methods userID may pay with. A block empties the set,
// an allow-list narrows the globally enabled methods, and anything absent
// from GlobalEnabled is off. cfg is only read.
func Resolve(userID string, cfg *models.PaymentConfig) MethodSet {
	set := make(MethodSet)
	if cfg == nil {
		return set
	}
	if r, ok := cfg.Restrictions[userID]; ok && r.Blocked {
		return set
	}

	allowed, narrowed := cfg.PerUserAllowed[userID]
	if !narrowed {
		for key, enabled := range cfg.GlobalEnabled {
			if enabled {
				set[key] = struct{}{}
			}
		}
		return set
	}

	for _, key := range allowed {
		if cfg.GlobalEnabled[key] {
			set[key] = struct{}{}
		}
	}
	return set
}

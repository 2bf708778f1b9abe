package clientstore

import (
	"context"
	"fmt"
)

// MigrateLegacyKeys moves the legacy guest location into the canonical key when the canonical
// key is missing. With mirror set the legacy key is rewritten to the canonical value so older
// builds keep reading it; otherwise it is deleted. Reports whether anything changed.
func MigrateLegacyKeys(ctx context.Context, store Store, clientID string, mirror bool) (bool, error) {
	legacy, hasLegacy, err := store.Get(ctx, clientID, KeyLegacyGuestLocation)
	if err != nil {
		return false, err
	}
	canonical, hasCanonical, err := store.Get(ctx, clientID, KeyGuestLocation)
	if err != nil {
		return false, err
	}

	changed := false
	if hasLegacy && !hasCanonical {
		if err := store.Set(ctx, clientID, KeyGuestLocation, legacy); err != nil {
			return false, fmt.Errorf("migrate legacy guest location: %w", err)
		}
		canonical, hasCanonical = legacy, true
		changed = true
	}

	switch {
	case mirror && hasCanonical && legacy != canonical:
		if err := store.Set(ctx, clientID, KeyLegacyGuestLocation, canonical); err != nil {
			return changed, fmt.Errorf("mirror legacy guest location: %w", err)
		}
		changed = true
	case !mirror && hasLegacy:
		if err := store.Remove(ctx, clientID, KeyLegacyGuestLocation); err != nil {
			return changed, fmt.Errorf("drop legacy guest location: %w", err)
		}
		changed = true
	}
	return changed, nil
}

package clientstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyJSON = `{"city":"Pune","latitude":18.52,"longitude":73.85}`

func TestMigrateLegacyKeys(t *testing.T) {
	tests := []struct {
		name          string
		legacy        string
		canonical     string
		mirror        bool
		wantChanged   bool
		wantCanonical string
		wantLegacy    string
	}{
		{name: "legacy only, mirrored", legacy: legacyJSON, mirror: true, wantChanged: true, wantCanonical: legacyJSON, wantLegacy: legacyJSON},
		{name: "legacy only, dropped", legacy: legacyJSON, mirror: false, wantChanged: true, wantCanonical: legacyJSON},
		{name: "canonical wins over stale legacy", legacy: `{"city":"Old"}`, canonical: legacyJSON, mirror: true, wantChanged: true, wantCanonical: legacyJSON, wantLegacy: legacyJSON},
		{name: "already in sync", legacy: legacyJSON, canonical: legacyJSON, mirror: true, wantCanonical: legacyJSON, wantLegacy: legacyJSON},
		{name: "nothing stored", mirror: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := newTestStore(t)
			if tt.legacy != "" {
				require.NoError(t, s.Set(ctx, "client-m1", KeyLegacyGuestLocation, tt.legacy))
			}
			if tt.canonical != "" {
				require.NoError(t, s.Set(ctx, "client-m1", KeyGuestLocation, tt.canonical))
			}

			changed, err := MigrateLegacyKeys(ctx, s, "client-m1", tt.mirror)
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, changed)

			canonical, _, err := s.Get(ctx, "client-m1", KeyGuestLocation)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCanonical, canonical)
			legacy, _, err := s.Get(ctx, "client-m1", KeyLegacyGuestLocation)
			require.NoError(t, err)
			assert.Equal(t, tt.wantLegacy, legacy)
		})
	}
}

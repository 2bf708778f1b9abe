package clientstore

// Persisted client keys. Values are stored byte for byte as the browser app writes them.
const (
	KeyGuestLocation       = "localfelo_guest_location"
	KeyLegacyGuestLocation = "oldcycle_guest_location"
	KeyLocationVersion     = "localfelo_location_version"
	KeyLocationModalShown  = "localfelo_location_modal_shown"
	KeyIntroSkipped        = "localfelo_intro_skipped"
	KeyUser                = "oldcycle_user"
	KeyToken               = "oldcycle_token"
)

// FlagTrue is the only value a one-shot flag key ever holds.
const FlagTrue = "true"

// IsFlagKey reports whether key is a one-shot UI flag the client may set directly.
func IsFlagKey(key string) bool {
	return key == KeyLocationModalShown || key == KeyIntroSkipped
}

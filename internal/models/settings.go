package models

// SalonSettings is the operational toggle set read by the queue and the
// reminder scheduler.
type SalonSettings struct {
	RequireApproval      bool   `json:"require_approval"`
	Timezone             string `json:"timezone"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

// DefaultSalonSettings is used when no settings row exists. Approval defaults
// to required so nothing auto-sends on a fresh install.
func DefaultSalonSettings() SalonSettings {
	return SalonSettings{
		RequireApproval:      true,
		Timezone:             "UTC",
		NotificationsEnabled: true,
	}
}

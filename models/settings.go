package models

// Settings are the persisted tracking toggles. They are loaded from the
// settings store and handed to the components that need them; nothing reads
// them from ambient globals.
type Settings struct {
	EnableTracking     bool `json:"enable_tracking"`
	TrackPageLoad      bool `json:"track_page_load"`
	TrackFormErrors    bool `json:"track_form_errors"`
	TrackAbandonment   bool `json:"track_abandonment"`
	SessionRecording   bool `json:"session_recording"`
	HeatmapIntegration bool `json:"heatmap_integration"`
}

// DefaultSettings are applied on first install.
func DefaultSettings() Settings {
	return Settings{
		EnableTracking:   true,
		TrackPageLoad:    true,
		TrackFormErrors:  true,
		TrackAbandonment: true,
	}
}

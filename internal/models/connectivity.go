package models

// Mode is the connectivity presentation currently shown.
type Mode int

const (
	ModeUnknown Mode = iota
	ModeOnline
	ModeOffline
)

func (m Mode) String() string {
	switch m {
	case ModeOnline:
		return "online"
	case ModeOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Region is one of the two mutually exclusive view regions.
type Region string

const (
	RegionPrimary       Region = "primary"
	RegionOfflineNotice Region = "offline-notice"
)

// Regions returns the region to show and the region to hide for a mode.
func (m Mode) Regions() (show, hide Region) {
	if m == ModeOnline {
		return RegionPrimary, RegionOfflineNotice
	}
	return RegionOfflineNotice, RegionPrimary
}

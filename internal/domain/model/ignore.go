package model

// IgnoreCheckIn suppresses activation recording for a matching caller.
// A check-in is suppressed when its application, module, or user agent
// matches any entry individually.
type IgnoreCheckIn struct {
	ID          string // UUID
	Application string
	Module      string
	UserAgent   string
}

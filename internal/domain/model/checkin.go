package model

import "time"

// CheckIn records that a CDK was redeemed by an end application. Multiple
// bills can share a CDK after merges, so CDK is a linking key, not unique.
type CheckIn struct {
	ID          string // UUID
	CDK         string
	ActivatedAt time.Time
	Application string
	Module      string
	UserAgent   string
}

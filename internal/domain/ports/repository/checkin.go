package repository

import (
	"context"
	"time"

	"cdk-billing/internal/domain/model"
)

type CheckInRepository interface {
	// GetOrCreate records the first activation of a code; later calls for
	// the same cdk return the existing row (first activation wins).
	GetOrCreate(ctx context.Context, tx Tx, ci *model.CheckIn) (*model.CheckIn, bool, error)

	// ListByApplication returns check-ins for one application within
	// [from, to), oldest first. An empty application matches all.
	ListByApplication(ctx context.Context, tx Tx, application string, from, to time.Time) ([]*model.CheckIn, error)
}

type IgnoreCheckInRepository interface {
	// Matches reports whether application, module, or user agent
	// individually matches any ignore entry.
	Matches(ctx context.Context, tx Tx, application, module, userAgent string) (bool, error)
	Save(ctx context.Context, tx Tx, entry *model.IgnoreCheckIn) error
	ListAll(ctx context.Context, tx Tx) ([]*model.IgnoreCheckIn, error)
}

// File: internal/usecase/checkin_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"cdk-billing/internal/domain"
	"cdk-billing/internal/domain/model"
	"cdk-billing/internal/domain/ports/repository"
	"cdk-billing/internal/infra/metrics"
)

// Compile-time check
var _ CheckInUseCase = (*checkInUC)(nil)

// CheckInInput is one activation report from an end application.
type CheckInInput struct {
	CDK         string
	Application string
	Module      string
	UserAgent   string
}

// CheckInResult pairs one batch item with its outcome.
type CheckInResult struct {
	CDK     string
	Created bool
	Err     error
}

// CheckInUseCase records code activations. The first report for a code
// wins; repeats return the original record. Reports matching the ignore
// list (internal tooling, monitoring probes) are silently dropped.
type CheckInUseCase interface {
	Record(ctx context.Context, in CheckInInput) (*model.CheckIn, bool, error)
	RecordBatch(ctx context.Context, ins []CheckInInput) []CheckInResult
	ListByApplication(ctx context.Context, application string, from, to time.Time) ([]*model.CheckIn, error)

	// ignore-list administration
	SaveIgnore(ctx context.Context, entry *model.IgnoreCheckIn) error
	ListIgnores(ctx context.Context) ([]*model.IgnoreCheckIn, error)
}

type checkInUC struct {
	checkins repository.CheckInRepository
	ignores  repository.IgnoreCheckInRepository
	bills    repository.BillRepository
	log      *zerolog.Logger
	now      func() time.Time
}

func NewCheckInUseCase(checkins repository.CheckInRepository, ignores repository.IgnoreCheckInRepository, bills repository.BillRepository, logger *zerolog.Logger) *checkInUC {
	return &checkInUC{checkins: checkins, ignores: ignores, bills: bills, log: logger, now: time.Now}
}

func (u *checkInUC) Record(ctx context.Context, in CheckInInput) (*model.CheckIn, bool, error) {
	if in.CDK == "" {
		return nil, false, domain.ErrInvalidArgument
	}

	ignored, err := u.ignores.Matches(ctx, nil, in.Application, in.Module, in.UserAgent)
	if err != nil {
		return nil, false, err
	}
	if ignored {
		metrics.IncCheckIn("ignored")
		u.log.Debug().Str("application", in.Application).Str("module", in.Module).Msg("check-in suppressed")
		return nil, false, nil
	}

	// Codes with no local order are still recorded; the order may simply
	// not have been ingested yet.
	if bills, err := u.bills.FindByCDK(ctx, nil, in.CDK); err != nil || len(bills) == 0 {
		metrics.IncCheckIn("unknown_cdk")
		u.log.Debug().Str("cdk", in.CDK).Msg("activation for a code with no local order")
	}

	ci := &model.CheckIn{
		ID:          uuid.NewString(),
		CDK:         in.CDK,
		ActivatedAt: u.now(),
		Application: in.Application,
		Module:      in.Module,
		UserAgent:   in.UserAgent,
	}
	stored, created, err := u.checkins.GetOrCreate(ctx, nil, ci)
	if err != nil {
		metrics.IncCheckIn("error")
		return nil, false, err
	}
	if created {
		metrics.IncCheckIn("ok")
	} else {
		metrics.IncCheckIn("duplicate")
	}
	return stored, created, nil
}

func (u *checkInUC) RecordBatch(ctx context.Context, ins []CheckInInput) []CheckInResult {
	out := make([]CheckInResult, 0, len(ins))
	for _, in := range ins {
		_, created, err := u.Record(ctx, in)
		out = append(out, CheckInResult{CDK: in.CDK, Created: created, Err: err})
	}
	return out
}

func (u *checkInUC) ListByApplication(ctx context.Context, application string, from, to time.Time) ([]*model.CheckIn, error) {
	return u.checkins.ListByApplication(ctx, nil, application, from, to)
}

func (u *checkInUC) SaveIgnore(ctx context.Context, entry *model.IgnoreCheckIn) error {
	if entry.Application == "" && entry.Module == "" && entry.UserAgent == "" {
		return domain.ErrInvalidArgument
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return u.ignores.Save(ctx, nil, entry)
}

func (u *checkInUC) ListIgnores(ctx context.Context) ([]*model.IgnoreCheckIn, error) {
	return u.ignores.ListAll(ctx, nil)
}

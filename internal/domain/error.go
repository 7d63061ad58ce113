package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound           = errors.New("entity not found")
	ErrAlreadyExists      = errors.New("entity already exists")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrOperationFailed    = errors.New("operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidExecContext = errors.New("invalid execution context")

	// Ingestion
	ErrCreateFailed    = errors.New("create bill failed")
	ErrPlanNotFound    = errors.New("plan not found")
	ErrCodeAcquisition = errors.New("cdk acquisition failed")
	ErrUpdateFailed    = errors.New("update bill failed")

	// Transfer
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderTooOld        = errors.New("order older than 3 days")
	ErrAlreadyTransferred = errors.New("order already transferred")
	ErrSameCDK            = errors.New("orders already share the same cdk")

	// Rewards
	ErrRewardNotFound        = errors.New("reward not found")
	ErrRewardExpired         = errors.New("reward expired")
	ErrRewardNotStarted      = errors.New("reward not started")
	ErrRewardExhausted       = errors.New("reward exhausted")
	ErrDestinationIneligible = errors.New("destination order not eligible for reward")
	ErrRewardAlreadyGiven    = errors.New("reward already given to this order")

	// Platform adapters
	ErrNotAnOrder    = errors.New("not an entitlement order")
	ErrOrderNotPaid  = errors.New("order not in a paid state")
	ErrPlatformQuery = errors.New("platform query failed")
)

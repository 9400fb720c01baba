package fetch

import (
	"math"
	"time"
)

// BackoffStrategy defines the strategy for calculating retry delays.
type BackoffStrategy string

const (
	// BackoffConstant returns a constant delay for all retry attempts
	BackoffConstant BackoffStrategy = "constant"
	// BackoffLinear increases the delay linearly with each retry attempt
	BackoffLinear BackoffStrategy = "linear"
	// BackoffExponential increases the delay exponentially with each retry attempt
	BackoffExponential BackoffStrategy = "exponential"
)

// RetryPolicy is the explicit retry policy owned by the fetch layer.
// External source retries go through this one policy object rather than
// per-call ad hoc logic.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first call.
	MaxAttempts int `json:"max_attempts"`
	// BackoffStrategy determines how delays are calculated between retries
	BackoffStrategy BackoffStrategy `json:"backoff_strategy"`
	// InitialDelay is the delay before the first retry attempt
	InitialDelay time.Duration `json:"initial_delay"`
	// MaxDelay is the maximum delay between retry attempts (used for exponential backoff)
	MaxDelay time.Duration `json:"max_delay"`
	// Multiplier is the factor by which the delay increases (used for exponential backoff)
	Multiplier float64 `json:"multiplier"`
}

// DefaultRetryPolicy returns the policy applied to external sources when the
// configuration does not override it.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     3,
		BackoffStrategy: BackoffExponential,
		InitialDelay:    200 * time.Millisecond,
		MaxDelay:        5 * time.Second,
		Multiplier:      2.0,
	}
}

// CalculateDelay calculates the delay duration for a given retry attempt
// based on the configured backoff strategy.
func (rp RetryPolicy) CalculateDelay(attempt int) time.Duration {
	switch rp.BackoffStrategy {
	case BackoffConstant:
		return rp.InitialDelay
	case BackoffLinear:
		return rp.InitialDelay + (rp.InitialDelay * time.Duration(attempt))
	case BackoffExponential:
		delay := time.Duration(float64(rp.InitialDelay) * math.Pow(rp.Multiplier, float64(attempt)))
		if delay > rp.MaxDelay {
			return rp.MaxDelay
		}
		return delay
	default:
		return rp.InitialDelay
	}
}

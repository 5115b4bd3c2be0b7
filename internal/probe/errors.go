package probe

import "errors"

// Sentinel errors returned by the probe.
var (
	ErrUnhealthy        = errors.New("service unhealthy")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrInconsistent     = errors.New("leaderboard inconsistent")
)

package spacedrep

import "errors"

// Sentinel errors for the spacedrep package.
// Use errors.Is to check: errors.Is(err, spacedrep.ErrInvalidQuality)
var (
	ErrInvalidQuality = errors.New("spacedrep: invalid quality")
	ErrNotScheduled   = errors.New("spacedrep: item not scheduled")
	ErrInvalidState   = errors.New("spacedrep: scheduling state out of bounds")
)

package scheduler

import "errors"

// ErrInvalidSchedule is returned when a daily schedule cannot be parsed
var ErrInvalidSchedule = errors.New("invalid schedule")

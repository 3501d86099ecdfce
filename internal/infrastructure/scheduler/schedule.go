package scheduler

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseDailySchedule extracts hour and minute from a cron expression of the
// form "minute hour * * *". Day, month and weekday must be "*". An empty
// expression yields 02:00.
func ParseDailySchedule(expr string) (hour, minute int, err error) {
	parts := strings.Fields(expr)
	if len(parts) == 0 {
		return 2, 0, nil
	}
	if len(parts) != 5 {
		return 0, 0, fmt.Errorf("%w: %q must have 5 fields", ErrInvalidSchedule, expr)
	}
	for _, field := range parts[2:] {
		if field != "*" {
			return 0, 0, fmt.Errorf("%w: only daily schedules are supported, got %q", ErrInvalidSchedule, expr)
		}
	}
	if minute, err = strconv.Atoi(parts[0]); err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: minute must be 0-59, got %q", ErrInvalidSchedule, parts[0])
	}
	if hour, err = strconv.Atoi(parts[1]); err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: hour must be 0-23, got %q", ErrInvalidSchedule, parts[1])
	}
	return hour, minute, nil
}

package utils

import "time"

// TimeRemaining is a countdown split into display units
type TimeRemaining struct {
	Total   int64 // seconds, never negative
	Days    int64
	Hours   int64
	Minutes int64
	Seconds int64
	Expired bool
}

// GetTimeRemaining returns the countdown from now to the unix timestamp end
func GetTimeRemaining(end int64, now time.Time) TimeRemaining {
	total := end - now.Unix()
	if total <= 0 {
		return TimeRemaining{Expired: true}
	}
	return TimeRemaining{
		Total:   total,
		Days:    total / 86400,
		Hours:   (total % 86400) / 3600,
		Minutes: (total % 3600) / 60,
		Seconds: total % 60,
	}
}

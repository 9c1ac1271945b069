package auth

import "time"

// IsWithinThresholdPeriod reports whether t falls inside the trailing
// window described by pattern, a time.ParseDuration string such as "24h".
// The login cooldown uses it to decide whether failed attempts are still
// recent enough to count.
func IsWithinThresholdPeriod(t time.Time, pattern string) (bool, error) {
	duration, err := time.ParseDuration(pattern)
	if err != nil {
		return false, err
	}

	threshold := time.Now().Add(-duration)

	return t.After(threshold), nil
}

// IsOutsideThresholdPeriod reports whether t predates the trailing window,
// meaning any state tied to it (attempt counters) can be reset.
func IsOutsideThresholdPeriod(t time.Time, pattern string) (bool, error) {
	within, err := IsWithinThresholdPeriod(t, pattern)
	if err != nil {
		return false, err
	}

	return !within, nil
}

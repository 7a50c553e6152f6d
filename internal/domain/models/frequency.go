package models

import "time"

// Frequency represents the calendar grid a panel is aligned on.
type Frequency string

const (
	FreqBusinessDay Frequency = "B"
	FreqDaily       Frequency = "D"
	FreqWeekly      Frequency = "W"
	FreqMonthly     Frequency = "M"
)

// IsValidFrequency returns true if f is a supported frequency.
func IsValidFrequency(f Frequency) bool {
	switch f {
	case FreqBusinessDay, FreqDaily, FreqWeekly, FreqMonthly:
		return true
	default:
		return false
	}
}

// DefaultFrequency returns the default alignment frequency.
func DefaultFrequency() Frequency { return FreqBusinessDay }

// NormalizeFrequency converts raw string to a valid frequency (or default).
func NormalizeFrequency(s string) Frequency {
	if s == "" {
		return DefaultFrequency()
	}
	f := Frequency(s)
	if IsValidFrequency(f) {
		return f
	}
	return DefaultFrequency()
}

// Floor returns the label of the bin that t falls into.
// Business-day bins fold weekends into the preceding Friday, weekly bins are
// labelled by their Monday and monthly bins by the first of the month.
func (f Frequency) Floor(t time.Time) time.Time {
	d := truncateDay(t)
	switch f {
	case FreqBusinessDay:
		switch d.Weekday() {
		case time.Saturday:
			return d.AddDate(0, 0, -1)
		case time.Sunday:
			return d.AddDate(0, 0, -2)
		}
		return d
	case FreqWeekly:
		offset := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -offset)
	case FreqMonthly:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// Next returns the label following bin label t.
func (f Frequency) Next(t time.Time) time.Time {
	d := f.Floor(t)
	switch f {
	case FreqBusinessDay:
		n := d.AddDate(0, 0, 1)
		for n.Weekday() == time.Saturday || n.Weekday() == time.Sunday {
			n = n.AddDate(0, 0, 1)
		}
		return n
	case FreqWeekly:
		return d.AddDate(0, 0, 7)
	case FreqMonthly:
		return d.AddDate(0, 1, 0)
	default:
		return d.AddDate(0, 0, 1)
	}
}

// Range returns every bin label from the bin of `from` through the bin of `to`.
func (f Frequency) Range(from, to time.Time) []time.Time {
	start, end := f.Floor(from), f.Floor(to)
	if end.Before(start) {
		return nil
	}
	out := make([]time.Time, 0, 64)
	for t := start; !t.After(end); t = f.Next(t) {
		out = append(out, t)
	}
	return out
}

// InferFrequency guesses the frequency of an ascending index.
// It returns false when fewer than two timestamps exist or no supported
// frequency reproduces every step of the index.
func InferFrequency(index []time.Time) (Frequency, bool) {
	if len(index) < 2 {
		return "", false
	}
	for _, f := range []Frequency{FreqDaily, FreqBusinessDay, FreqWeekly, FreqMonthly} {
		if matchesFrequency(index, f) {
			return f, true
		}
	}
	return "", false
}

func matchesFrequency(index []time.Time, f Frequency) bool {
	for i := range index {
		if !f.Floor(index[i]).Equal(truncateDay(index[i])) {
			return false
		}
		if i > 0 && !f.Next(index[i-1]).Equal(truncateDay(index[i])) {
			return false
		}
	}
	return true
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

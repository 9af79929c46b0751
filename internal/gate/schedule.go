package gate

import "time"

// DefaultRevealLength is one calendar day: Christmas Day, midnight to midnight.
const DefaultRevealLength = 24 * time.Hour

// Schedule turns the configured reveal date into a concrete Window for a
// given instant.
//
// Year == 0 means "the viewer's current calendar year". A non-zero Year pins
// the window to one Christmas only; after it passes, the phase stays
// PhasePassed forever.
//
// Rollover only applies when Year == 0. With Rollover set, an instant after
// this year's window is measured against next year's window instead, so the
// owner sees a fresh countdown rather than "passed".
type Schedule struct {
	Month    time.Month
	Day      int
	Year     int
	Length   time.Duration
	Location *time.Location
	Rollover bool
}

// DefaultSchedule is December 25 00:00 to December 26 00:00 local time,
// recurring every year.
func DefaultSchedule() Schedule {
	return Schedule{
		Month:    time.December,
		Day:      25,
		Length:   DefaultRevealLength,
		Location: time.Local,
		Rollover: true,
	}
}

// Window returns the reveal window that applies at now.
func (s Schedule) Window(now time.Time) Window {
	loc := s.Location
	if loc == nil {
		loc = time.Local
	}

	year := s.Year
	if year == 0 {
		year = now.In(loc).Year()
	}

	w := s.windowFor(year, loc)
	if s.Year == 0 && s.Rollover && !now.Before(w.End) {
		w = s.windowFor(year+1, loc)
	}
	return w
}

// Evaluate is a shortcut for Evaluate(now, s.Window(now), isOwner).
func (s Schedule) Evaluate(now time.Time, isOwner bool) Reveal {
	return Evaluate(now, s.Window(now), isOwner)
}

func (s Schedule) windowFor(year int, loc *time.Location) Window {
	month := s.Month
	if month == 0 {
		month = time.December
	}
	day := s.Day
	if day == 0 {
		day = 25
	}
	length := s.Length
	if length <= 0 {
		length = DefaultRevealLength
	}

	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.Add(length)}
}

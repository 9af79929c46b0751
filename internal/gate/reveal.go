// Package gate holds the pure decisions behind every tree page: when the
// well wishes on a tree are revealed, who owns a tree, and whether a
// participant has already hung an ornament on it.
//
// Nothing here performs I/O or reads the wall clock. Callers pass the
// current time in, so the server, the CLI and the tests all reach the same
// answer for the same instant.
package gate

import (
	"fmt"
	"time"
)

// Phase describes where an instant falls relative to a reveal window.
type Phase int

const (
	// PhaseLocked means the window has not opened yet.
	PhaseLocked Phase = iota
	// PhaseOpen means the instant is inside [Start, End).
	PhaseOpen
	// PhasePassed means the window has closed. Messages are locked again.
	PhasePassed
)

func (p Phase) String() string {
	switch p {
	case PhaseOpen:
		return "open"
	case PhasePassed:
		return "passed"
	default:
		return "locked"
	}
}

// MarshalText lets a Phase appear as its name in JSON responses.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText is the inverse of MarshalText. Unknown names are an error.
func (p *Phase) UnmarshalText(b []byte) error {
	switch string(b) {
	case "locked":
		*p = PhaseLocked
	case "open":
		*p = PhaseOpen
	case "passed":
		*p = PhasePassed
	default:
		return fmt.Errorf("gate: unknown phase %q", string(b))
	}
	return nil
}

// Window is the half-open interval [Start, End) during which a tree owner
// may read the messages left on their tree.
type Window struct {
	Start time.Time `json:"unlockStart"`
	End   time.Time `json:"unlockEnd"`
}

// Contains reports whether now is inside the window.
func (w Window) Contains(now time.Time) bool {
	return !now.Before(w.Start) && now.Before(w.End)
}

// Phase classifies now against the window.
func (w Window) Phase(now time.Time) Phase {
	switch {
	case now.Before(w.Start):
		return PhaseLocked
	case now.Before(w.End):
		return PhaseOpen
	default:
		return PhasePassed
	}
}

// IsRevealed is the reveal gate: true iff the viewer owns the tree and now
// lies in [unlockStart, unlockEnd).
//
// Non-owners never see revealed content, whatever the time. Once unlockEnd
// has passed the gate is closed again; a Schedule with Rollover decides
// whether that state is permanent or only lasts until next year.
func IsRevealed(now, unlockStart, unlockEnd time.Time, isOwner bool) bool {
	return isOwner && !now.Before(unlockStart) && now.Before(unlockEnd)
}

// Countdown is the whole days/hours/minutes left until a window opens.
type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// String renders the countdown the way the tree page shows it, e.g. "3d 4h 12m".
func (c Countdown) String() string {
	return fmt.Sprintf("%dd %dh %dm", c.Days, c.Hours, c.Minutes)
}

// IsZero reports whether no whole minute remains.
func (c Countdown) IsZero() bool {
	return c.Days == 0 && c.Hours == 0 && c.Minutes == 0
}

// TimeRemaining floor-divides unlockStart-now into days, hours and minutes.
// The result is never negative: at or after unlockStart it is {0,0,0}, and
// callers are expected to branch on the Phase instead of showing it.
func TimeRemaining(now, unlockStart time.Time) Countdown {
	d := unlockStart.Sub(now)
	if d <= 0 {
		return Countdown{}
	}

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute

	return Countdown{
		Days:    int(days),
		Hours:   int(hours),
		Minutes: int(minutes),
	}
}

// Reveal bundles everything a page needs to render the wishes section.
type Reveal struct {
	Phase     Phase     `json:"phase"`
	Revealed  bool      `json:"revealed"`
	IsOwner   bool      `json:"isOwner"`
	Window    Window    `json:"window"`
	Remaining Countdown `json:"countdown"`
}

// Evaluate runs the gate for one viewer at one instant. Remaining is only
// filled in while the window is still locked.
func Evaluate(now time.Time, w Window, isOwner bool) Reveal {
	r := Reveal{
		Phase:    w.Phase(now),
		Revealed: IsRevealed(now, w.Start, w.End, isOwner),
		IsOwner:  isOwner,
		Window:   w,
	}
	if r.Phase == PhaseLocked {
		r.Remaining = TimeRemaining(now, w.Start)
	}
	return r
}

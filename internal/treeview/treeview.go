// Package treeview composes a tree page on the participant's side: which
// mode the page is in, whether the participant may still decorate, what
// the reveal gate says, and how the page stays fresh.
//
// CALL-SITE ERROR POLICY:
// Every remote call decides for itself whether a failure blocks the action
// or degrades the page. The choice for each one is stated on the method
// that makes the call:
//
//	GetTree        block    (no tree, no page)
//	GetTreeOwner   degrade  (owner name shown empty, logged at Warn)
//	ListOrnaments  degrade  (submission state Unknown, error kept for retry)
//	AddOrnament    block    (error returned, page unchanged)
//	AddWish        block    (state moves to failed, error returned)
//	ListWishes     degrade  (reveal evaluated locally from the schedule)
package treeview

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/wellwishers/internal/client"
	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/session"
)

// API is the slice of *client.Client a tree page uses.
type API interface {
	GetTree(ctx context.Context, treeID string) (*client.Tree, error)
	GetTreeOwner(ctx context.Context, treeID string) (*model.Owner, error)
	ListOrnaments(ctx context.Context, treeID string) (*client.Placements, error)
	AddOrnament(ctx context.Context, treeID string, in client.OrnamentInput) (*client.Placed, error)
	AddWish(ctx context.Context, treeID, text string) (*model.Wish, error)
	ListWishes(ctx context.Context, treeID string) (*client.Wishes, error)
}

// Session is the slice of *session.Session a tree page uses.
type Session interface {
	TreeID() string
	Email() string
	ParticipantID() (string, bool)
	LastWish() (text, treeID, state string)
	SetLastWish(text, treeID, state string)
	Save() error
}

var (
	_ API     = (*client.Client)(nil)
	_ Session = (*session.Session)(nil)
)

// Mode is decided by comparing the stored own-tree id with the tree being
// viewed.
type Mode int

const (
	// ModeGuest is someone else's tree: decorate it and leave a wish.
	ModeGuest Mode = iota
	// ModeOwn is the participant's own tree: read-only, reveal gate applies.
	ModeOwn
)

func (m Mode) String() string {
	if m == ModeOwn {
		return "own tree"
	}
	return "guest"
}

// ResolveMode is ModeOwn iff storedTreeID names contextTreeID.
func ResolveMode(storedTreeID, contextTreeID string) Mode {
	if gate.IsOwnTree(storedTreeID, contextTreeID) {
		return ModeOwn
	}
	return ModeGuest
}

// ShowPicker reports whether the ornament picker is offered.
func (m Mode) ShowPicker() bool { return m == ModeGuest }

// ShowWishForm reports whether the wish form is offered.
func (m Mode) ShowWishForm() bool { return m == ModeGuest }

// ConsultsGate reports whether the reveal gate is evaluated at all. Guests
// never see revealed content.
func (m Mode) ConsultsGate() bool { return m == ModeOwn }

// Page is one tree as this participant sees it right now.
type Page struct {
	TreeID     string
	TreeName   string
	Owner      model.Owner
	OwnerErr   error // set when the owner lookup degraded
	Ornaments  []model.Ornament
	Decorators []model.Decorator
	Mode       Mode
	Submission gate.Submission
	Reveal     gate.Reveal
	FetchedAt  time.Time
}

// PickerEnabled is true when the participant may hang an ornament now.
func (p *Page) PickerEnabled() bool {
	return p.Mode.ShowPicker() && !p.Submission.Blocked()
}

func (p *Page) clone() *Page {
	cp := *p
	cp.Ornaments = append([]model.Ornament(nil), p.Ornaments...)
	cp.Decorators = append([]model.Decorator(nil), p.Decorators...)
	return &cp
}

// Loader builds and refreshes pages.
type Loader struct {
	api      API
	sess     Session
	schedule gate.Schedule
	now      func() time.Time
	logger   *slog.Logger
}

func NewLoader(api API, sess Session, schedule gate.Schedule, logger *slog.Logger) *Loader {
	return &Loader{api: api, sess: sess, schedule: schedule, now: time.Now, logger: logger}
}

// Load fetches treeID and evaluates every decision on it.
//
// GetTree blocks: its error is returned as is, so a *client.NotFoundError
// can be rendered as "tree not found". GetTreeOwner and ListOrnaments
// degrade.
func (l *Loader) Load(ctx context.Context, treeID string) (*Page, error) {
	tree, err := l.api.GetTree(ctx, treeID)
	if err != nil {
		return nil, err
	}

	page := &Page{
		TreeID:     tree.ID,
		TreeName:   tree.Name,
		Owner:      tree.Owner,
		Ornaments:  tree.Ornaments,
		Decorators: tree.Decorators,
		Mode:       ResolveMode(l.sess.TreeID(), tree.ID),
	}

	owner, err := l.api.GetTreeOwner(ctx, tree.ID)
	if err != nil {
		l.logger.Warn("loading tree owner failed; showing an empty owner name",
			slog.String("treeID", tree.ID),
			slog.String("error", err.Error()),
		)
		// The tree already carries the owner email, which the reveal
		// gate needs; only the display name is dropped.
		page.Owner.Name = ""
		page.OwnerErr = err
	} else {
		page.Owner = *owner
	}

	l.refresh(ctx, page)
	l.tick(page)
	return page, nil
}

// Refresh re-fetches the placements. It never fails: a load error leaves
// the previous ornaments in place and sets the submission state to Unknown.
func (l *Loader) Refresh(ctx context.Context, page *Page) {
	l.refresh(ctx, page)
}

// Tick re-evaluates the reveal gate against the clock.
func (l *Loader) Tick(page *Page) {
	l.tick(page)
}

func (l *Loader) refresh(ctx context.Context, page *Page) {
	participantID, generated := l.sess.ParticipantID()
	if generated {
		if err := l.sess.Save(); err != nil {
			l.logger.Warn("saving generated participant id", slog.String("error", err.Error()))
		}
	}

	list, err := l.api.ListOrnaments(ctx, page.TreeID)
	if err != nil {
		l.logger.Warn("listing placements failed; submission state unknown",
			slog.String("treeID", page.TreeID),
			slog.String("error", err.Error()),
		)
		page.Submission = gate.CheckSubmission[model.Ornament](nil, err, participantID)
		return
	}

	page.Ornaments = list.Ornaments
	page.Decorators = model.Decorators(list.Ornaments)
	page.Submission = gate.CheckSubmission(list.Ornaments, nil, participantID)
	page.FetchedAt = l.now()
}

// tick consults the gate only for an owner whose email matches the tree
// owner's. Everyone else gets a locked Reveal with the window filled in.
func (l *Loader) tick(page *Page) {
	now := l.now()
	isOwner := page.Mode.ConsultsGate() && gate.IsOwner(l.sess.Email(), page.Owner.Email)
	page.Reveal = l.schedule.Evaluate(now, isOwner)
}

// WishesView is the owner's wishes section.
type WishesView struct {
	Reveal gate.Reveal
	Wishes []model.Wish
	Err    error // set when the list degraded to the local gate only
}

// Wishes fetches the wishes and runs the gate locally against the window
// the server reports, so both sides agree on the instant of unlocking.
// ListWishes degrades: on failure the countdown still renders from the
// local schedule and Err is set.
func (l *Loader) Wishes(ctx context.Context, page *Page) WishesView {
	l.tick(page)
	view := WishesView{Reveal: page.Reveal}
	if !page.Mode.ConsultsGate() {
		return view
	}

	res, err := l.api.ListWishes(ctx, page.TreeID)
	if err != nil {
		l.logger.Warn("listing wishes failed; showing the local countdown",
			slog.String("treeID", page.TreeID),
			slog.String("error", err.Error()),
		)
		view.Err = err
		return view
	}

	if w := res.Window(); !w.Start.IsZero() {
		view.Reveal = gate.Evaluate(l.now(), w, page.Reveal.IsOwner)
	}
	if view.Reveal.Revealed {
		view.Wishes = res.Wishes
	}
	return view
}

package treeview

import (
	"context"
	"log/slog"
)

// WishStatus is where a wish is in its two-phase delivery.
type WishStatus int

const (
	WishIdle WishStatus = iota
	// WishPending is applied locally and not yet acknowledged.
	WishPending
	WishConfirmed
	WishFailed
)

func (s WishStatus) String() string {
	switch s {
	case WishPending:
		return "pending"
	case WishConfirmed:
		return "confirmed"
	case WishFailed:
		return "failed"
	default:
		return "idle"
	}
}

// ParseWishStatus is the inverse of String. Unknown text is WishIdle.
func ParseWishStatus(s string) WishStatus {
	switch s {
	case "pending":
		return WishPending
	case "confirmed":
		return WishConfirmed
	case "failed":
		return WishFailed
	default:
		return WishIdle
	}
}

// WishState is the latest wish and whether the server has it.
type WishState struct {
	Text   string
	TreeID string
	Status WishStatus
	Err    error
}

// Wisher sends wishes optimistically: the text is stored as pending, and
// becomes the default ornament message, before the server answers.
type Wisher struct {
	api    API
	sess   Session
	logger *slog.Logger

	// OnChange, when set, sees every transition, the pending one included.
	OnChange func(WishState)
}

func NewWisher(api API, sess Session, logger *slog.Logger) *Wisher {
	return &Wisher{api: api, sess: sess, logger: logger}
}

// Current returns the stored wish state.
func (w *Wisher) Current() WishState {
	text, treeID, status := w.sess.LastWish()
	return WishState{Text: text, TreeID: treeID, Status: ParseWishStatus(status)}
}

// Send moves through pending, then confirmed or failed. AddWish blocks: the
// error is returned and the state records it, but the text stays stored so
// it still seeds the next ornament message.
//
// A wish on the participant's own tree is refused with ErrOwnWish before
// any state is recorded or request sent.
func (w *Wisher) Send(ctx context.Context, treeID, text string) (WishState, error) {
	if ResolveMode(w.sess.TreeID(), treeID) == ModeOwn {
		return w.Current(), ErrOwnWish
	}

	st := WishState{Text: text, TreeID: treeID, Status: WishPending}
	w.record(st)

	if _, err := w.api.AddWish(ctx, treeID, text); err != nil {
		st.Status, st.Err = WishFailed, err
		w.record(st)
		return st, err
	}

	st.Status = WishConfirmed
	w.record(st)
	return st, nil
}

func (w *Wisher) record(st WishState) {
	w.sess.SetLastWish(st.Text, st.TreeID, st.Status.String())
	if err := w.sess.Save(); err != nil {
		w.logger.Warn("saving wish state", slog.String("status", st.Status.String()), slog.String("error", err.Error()))
	}
	if w.OnChange != nil {
		w.OnChange(st)
	}
}

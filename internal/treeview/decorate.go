package treeview

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/sakif/wellwishers/internal/client"
	"github.com/sakif/wellwishers/internal/gate"
)

var (
	// ErrBusy means a placement for this decorator is already in flight.
	ErrBusy = errors.New("treeview: a placement is already being submitted")
	// ErrAlreadyPlaced means the participant has an ornament on this tree.
	ErrAlreadyPlaced = errors.New("treeview: you have already decorated this tree")
	// ErrOwnTree means the page is the participant's own tree.
	ErrOwnTree = errors.New("treeview: you cannot decorate your own tree")
	// ErrOwnWish means the wish targets the participant's own tree.
	ErrOwnWish = errors.New("treeview: you cannot leave a wish on your own tree")
)

// Decorator submits ornaments, at most one request at a time.
type Decorator struct {
	api      API
	sess     Session
	inFlight atomic.Bool
	logger   *slog.Logger
}

func NewDecorator(api API, sess Session, logger *slog.Logger) *Decorator {
	return &Decorator{api: api, sess: sess, logger: logger}
}

// Busy reports whether a placement is in flight. The submit control is
// disabled while it is true.
func (d *Decorator) Busy() bool { return d.inFlight.Load() }

// Place hangs one ornament on page's tree.
//
// It refuses locally, without a request, on the participant's own tree and
// when the guard already says submitted. An empty message defaults to the
// last wish text. AddOrnament blocks: on error the page is left as it was,
// except that a 409 marks the page as submitted.
func (d *Decorator) Place(ctx context.Context, page *Page, in client.OrnamentInput) (*client.Placed, error) {
	if page.Mode == ModeOwn {
		return nil, ErrOwnTree
	}
	if page.Submission.Blocked() {
		return nil, ErrAlreadyPlaced
	}
	if !d.inFlight.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer d.inFlight.Store(false)

	if strings.TrimSpace(in.Message) == "" {
		in.Message, _, _ = d.sess.LastWish()
	}

	placed, err := d.api.AddOrnament(ctx, page.TreeID, in)
	if err != nil {
		if client.IsConflict(err) {
			page.Submission = gate.Submission{State: gate.SubmissionDone}
			return nil, errors.Join(ErrAlreadyPlaced, err)
		}
		return nil, err
	}

	page.Ornaments = placed.Ornaments
	page.Submission = gate.Submission{State: gate.SubmissionDone}
	d.logger.Debug("ornament placed",
		slog.String("treeID", page.TreeID),
		slog.String("icon", string(placed.Ornament.Icon)),
	)
	return placed, nil
}

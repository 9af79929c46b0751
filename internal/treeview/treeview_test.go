package treeview

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/wellwishers/internal/client"
	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/model"
)

// =========================================================================
// FAKES
// =========================================================================

type fakeAPI struct {
	mu        sync.Mutex
	tree      *client.Tree
	treeErr   error
	owner     *model.Owner
	ownerErr  error
	ornaments []model.Ornament
	listErr   error
	addErr    error
	wishErr   error
	wishes    []model.Wish
	wishesErr error

	listCalls atomic.Int32
	addCalls  atomic.Int32
	wishCalls atomic.Int32
	lastInput client.OrnamentInput

	// block, when set, holds AddOrnament until closed.
	block chan struct{}
}

func (f *fakeAPI) GetTree(context.Context, string) (*client.Tree, error) {
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	cp := *f.tree
	return &cp, nil
}

func (f *fakeAPI) GetTreeOwner(context.Context, string) (*model.Owner, error) {
	if f.ownerErr != nil {
		return nil, f.ownerErr
	}
	return f.owner, nil
}

func (f *fakeAPI) ListOrnaments(_ context.Context, treeID string) (*client.Placements, error) {
	f.listCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &client.Placements{TreeID: treeID, Ornaments: append([]model.Ornament(nil), f.ornaments...)}, nil
}

func (f *fakeAPI) AddOrnament(_ context.Context, treeID string, in client.OrnamentInput) (*client.Placed, error) {
	f.addCalls.Add(1)
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastInput = in
	if f.addErr != nil {
		return nil, f.addErr
	}
	o := model.Ornament{TreeID: treeID, UserID: "me", Icon: in.Icon, Message: in.Message, X: in.X, Y: in.Y}
	f.ornaments = append(f.ornaments, o)
	return &client.Placed{Ornament: o, Ornaments: append([]model.Ornament(nil), f.ornaments...)}, nil
}

func (f *fakeAPI) AddWish(_ context.Context, treeID, text string) (*model.Wish, error) {
	f.wishCalls.Add(1)
	if f.wishErr != nil {
		return nil, f.wishErr
	}
	return &model.Wish{TreeID: treeID, Text: text}, nil
}

func (f *fakeAPI) ListWishes(context.Context, string) (*client.Wishes, error) {
	if f.wishesErr != nil {
		return nil, f.wishesErr
	}
	w := christmas2025.Window(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC))
	return &client.Wishes{Wishes: f.wishes, UnlockStart: w.Start, UnlockEnd: w.End}, nil
}

// windowAPI reports a custom reveal window from ListWishes.
type windowAPI struct {
	*fakeAPI
	start time.Time
}

func (w *windowAPI) ListWishes(context.Context, string) (*client.Wishes, error) {
	return &client.Wishes{UnlockStart: w.start, UnlockEnd: w.start.Add(2 * time.Hour)}, nil
}

type fakeSession struct {
	mu        sync.Mutex
	treeID    string
	email     string
	id        string
	wish      [3]string
	saves     int
	history   []string
	generated bool
}

func (s *fakeSession) TreeID() string { return s.treeID }
func (s *fakeSession) Email() string  { return s.email }
func (s *fakeSession) ParticipantID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" {
		s.id, s.generated = "generated-id", true
		return s.id, true
	}
	return s.id, false
}
func (s *fakeSession) LastWish() (string, string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wish[0], s.wish[1], s.wish[2]
}
func (s *fakeSession) SetLastWish(text, treeID, state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wish = [3]string{text, treeID, state}
	s.history = append(s.history, state)
}
func (s *fakeSession) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var christmas2025 = gate.Schedule{
	Month:    time.December,
	Day:      25,
	Year:     2025,
	Length:   24 * time.Hour,
	Location: time.UTC,
}

func ownerTree() *fakeAPI {
	return &fakeAPI{
		tree:  &client.Tree{ID: "t1", Name: "Ada's Christmas Tree", Owner: model.Owner{Name: "Ada", Email: "ada@example.com"}},
		owner: &model.Owner{Name: "Ada", Email: "ada@example.com"},
	}
}

func newLoader(api API, sess Session, now time.Time) *Loader {
	l := NewLoader(api, sess, christmas2025, testLogger())
	l.now = func() time.Time { return now }
	return l
}

var (
	beforeChristmas = time.Date(2025, time.December, 24, 23, 0, 0, 0, time.UTC)
	onChristmas     = time.Date(2025, time.December, 25, 0, 1, 0, 0, time.UTC)
)

// =========================================================================
// MODE
// =========================================================================

func TestResolveMode(t *testing.T) {
	assert.Equal(t, ModeOwn, ResolveMode("t1", "t1"))
	assert.Equal(t, ModeOwn, ResolveMode(" T1 ", "t1"))
	assert.Equal(t, ModeGuest, ResolveMode("t1", "t2"))
	assert.Equal(t, ModeGuest, ResolveMode("", "t1"))

	assert.True(t, ModeGuest.ShowPicker())
	assert.True(t, ModeGuest.ShowWishForm())
	assert.False(t, ModeGuest.ConsultsGate())
	assert.False(t, ModeOwn.ShowPicker())
	assert.False(t, ModeOwn.ShowWishForm())
	assert.True(t, ModeOwn.ConsultsGate())
}

// =========================================================================
// LOAD
// =========================================================================

func TestLoadOwnTree(t *testing.T) {
	api := ownerTree()
	sess := &fakeSession{treeID: "t1", email: "ADA@example.com", id: "p-ada"}

	t.Run("before the window", func(t *testing.T) {
		page, err := newLoader(api, sess, beforeChristmas).Load(context.Background(), "t1")
		require.NoError(t, err)
		assert.Equal(t, ModeOwn, page.Mode)
		assert.False(t, page.PickerEnabled())
		assert.True(t, page.Reveal.IsOwner)
		assert.False(t, page.Reveal.Revealed)
		assert.Equal(t, gate.Countdown{Hours: 1}, page.Reveal.Remaining)
	})

	t.Run("inside the window", func(t *testing.T) {
		page, err := newLoader(api, sess, onChristmas).Load(context.Background(), "t1")
		require.NoError(t, err)
		assert.True(t, page.Reveal.Revealed)
	})
}

func TestLoadGuestTree(t *testing.T) {
	api := ownerTree()
	api.ornaments = []model.Ornament{{UserID: "p-bob", Name: "Bob"}}
	sess := &fakeSession{treeID: "t-mine", email: "bob@example.com", id: "p-bob"}

	page, err := newLoader(api, sess, onChristmas).Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, ModeGuest, page.Mode)
	assert.False(t, page.Reveal.Revealed, "guests never see revealed content")
	assert.Equal(t, gate.SubmissionDone, page.Submission.State)
	assert.False(t, page.PickerEnabled())
	require.Len(t, page.Decorators, 1)
}

func TestLoadBlocksOnMissingTree(t *testing.T) {
	api := &fakeAPI{treeErr: &client.NotFoundError{Resource: "tree", ID: "nope"}}
	_, err := newLoader(api, &fakeSession{}, beforeChristmas).Load(context.Background(), "nope")
	assert.True(t, client.IsNotFound(err))
}

func TestLoadDegrades(t *testing.T) {
	api := ownerTree()
	api.ownerErr = &client.NetworkError{Op: "fetch tree owner", Status: 502}
	api.listErr = errors.New("connection reset")
	sess := &fakeSession{}

	page, err := newLoader(api, sess, beforeChristmas).Load(context.Background(), "t1")
	require.NoError(t, err, "owner and placement failures must not block the page")

	assert.Empty(t, page.Owner.Name)
	assert.Error(t, page.OwnerErr)

	assert.Equal(t, gate.SubmissionUnknown, page.Submission.State)
	assert.Error(t, page.Submission.Err)
	assert.True(t, page.PickerEnabled(), "unknown is treated as not submitted")

	assert.True(t, sess.generated)
	assert.Equal(t, 1, sess.saves, "a generated id is persisted")
}

func TestLoadOwnerLookupFailureKeepsReveal(t *testing.T) {
	api := ownerTree()
	api.ownerErr = &client.NetworkError{Op: "fetch tree owner", Status: 502}
	sess := &fakeSession{treeID: "t1", email: "ada@example.com", id: "p-ada"}

	l := newLoader(api, sess, onChristmas)
	page, err := l.Load(context.Background(), "t1")
	require.NoError(t, err)

	assert.Empty(t, page.Owner.Name)
	assert.Equal(t, "ada@example.com", page.Owner.Email, "the tree's owner email survives")
	assert.Error(t, page.OwnerErr)
	assert.Equal(t, ModeOwn, page.Mode)
	assert.True(t, page.Reveal.IsOwner)
	assert.True(t, page.Reveal.Revealed)

	view := l.Wishes(context.Background(), page)
	assert.True(t, view.Reveal.Revealed)
}

// =========================================================================
// DECORATE
// =========================================================================

func TestDecoratorPlace(t *testing.T) {
	ctx := context.Background()

	t.Run("refuses own tree without a request", func(t *testing.T) {
		api := ownerTree()
		d := NewDecorator(api, &fakeSession{}, testLogger())
		_, err := d.Place(ctx, &Page{TreeID: "t1", Mode: ModeOwn}, client.OrnamentInput{Icon: model.IconStar})
		assert.ErrorIs(t, err, ErrOwnTree)
		assert.Zero(t, api.addCalls.Load())
	})

	t.Run("refuses a second placement without a request", func(t *testing.T) {
		api := ownerTree()
		d := NewDecorator(api, &fakeSession{}, testLogger())
		page := &Page{TreeID: "t1", Submission: gate.Submission{State: gate.SubmissionDone}}
		_, err := d.Place(ctx, page, client.OrnamentInput{Icon: model.IconStar})
		assert.ErrorIs(t, err, ErrAlreadyPlaced)
		assert.Zero(t, api.addCalls.Load())
	})

	t.Run("defaults the message to the last wish", func(t *testing.T) {
		api := ownerTree()
		sess := &fakeSession{wish: [3]string{"Peace on earth", "t1", "confirmed"}}
		d := NewDecorator(api, sess, testLogger())
		page := &Page{TreeID: "t1", Submission: gate.Submission{State: gate.SubmissionNone}}

		placed, err := d.Place(ctx, page, client.OrnamentInput{Icon: model.IconStar, X: 5, Y: 5})
		require.NoError(t, err)
		assert.Equal(t, "Peace on earth", placed.Ornament.Message)
		assert.Equal(t, gate.SubmissionDone, page.Submission.State)
		assert.Len(t, page.Ornaments, 1)
	})

	t.Run("server conflict marks the page submitted", func(t *testing.T) {
		api := ownerTree()
		api.addErr = &client.NetworkError{Op: "add placement", Status: 409}
		d := NewDecorator(api, &fakeSession{}, testLogger())
		page := &Page{TreeID: "t1"}

		_, err := d.Place(ctx, page, client.OrnamentInput{Icon: model.IconStar})
		assert.ErrorIs(t, err, ErrAlreadyPlaced)
		assert.True(t, page.Submission.Blocked())
	})

	t.Run("other failures leave the page unchanged", func(t *testing.T) {
		api := ownerTree()
		api.addErr = &client.NetworkError{Op: "add placement", Status: 500}
		d := NewDecorator(api, &fakeSession{}, testLogger())
		page := &Page{TreeID: "t1"}

		_, err := d.Place(ctx, page, client.OrnamentInput{Icon: model.IconStar})
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrAlreadyPlaced)
		assert.False(t, page.Submission.Blocked())
		assert.Empty(t, page.Ornaments)
	})

	t.Run("one request in flight at a time", func(t *testing.T) {
		api := ownerTree()
		api.block = make(chan struct{})
		d := NewDecorator(api, &fakeSession{}, testLogger())

		done := make(chan error, 1)
		go func() {
			_, err := d.Place(ctx, &Page{TreeID: "t1"}, client.OrnamentInput{Icon: model.IconStar})
			done <- err
		}()

		require.Eventually(t, d.Busy, time.Second, time.Millisecond)
		_, err := d.Place(ctx, &Page{TreeID: "t1"}, client.OrnamentInput{Icon: model.IconStar})
		assert.ErrorIs(t, err, ErrBusy)

		close(api.block)
		require.NoError(t, <-done)
		assert.False(t, d.Busy())
		assert.Equal(t, int32(1), api.addCalls.Load())
	})
}

// =========================================================================
// WISHES
// =========================================================================

func TestWisherTwoPhase(t *testing.T) {
	ctx := context.Background()

	t.Run("pending then confirmed", func(t *testing.T) {
		sess := &fakeSession{}
		w := NewWisher(ownerTree(), sess, testLogger())

		var seen []WishStatus
		w.OnChange = func(st WishState) { seen = append(seen, st.Status) }

		st, err := w.Send(ctx, "t1", "Joy")
		require.NoError(t, err)
		assert.Equal(t, WishConfirmed, st.Status)
		assert.Equal(t, []WishStatus{WishPending, WishConfirmed}, seen)
		assert.Equal(t, []string{"pending", "confirmed"}, sess.history)
		assert.Equal(t, WishConfirmed, w.Current().Status)
	})

	t.Run("pending then failed keeps the text", func(t *testing.T) {
		api := ownerTree()
		api.wishErr = &client.NetworkError{Op: "add wish", Status: 503}
		sess := &fakeSession{}
		w := NewWisher(api, sess, testLogger())

		st, err := w.Send(ctx, "t1", "Hope")
		require.Error(t, err)
		assert.Equal(t, WishFailed, st.Status)
		assert.Equal(t, []string{"pending", "failed"}, sess.history)

		cur := w.Current()
		assert.Equal(t, "Hope", cur.Text)
		assert.Equal(t, WishFailed, cur.Status)
	})
}

func TestWisherRefusesOwnTree(t *testing.T) {
	api := ownerTree()
	sess := &fakeSession{treeID: "t1", wish: [3]string{"Earlier", "t9", "confirmed"}}
	w := NewWisher(api, sess, testLogger())

	var changes int
	w.OnChange = func(WishState) { changes++ }

	st, err := w.Send(context.Background(), " T1 ", "To me")
	assert.ErrorIs(t, err, ErrOwnWish)
	assert.Zero(t, api.wishCalls.Load())
	assert.Zero(t, changes)
	assert.Empty(t, sess.history)
	assert.Equal(t, "Earlier", st.Text, "the stored wish is untouched")
}

func TestParseWishStatus(t *testing.T) {
	for _, s := range []WishStatus{WishIdle, WishPending, WishConfirmed, WishFailed} {
		assert.Equal(t, s, ParseWishStatus(s.String()))
	}
	assert.Equal(t, WishIdle, ParseWishStatus("garbage"))
}

func TestLoaderWishes(t *testing.T) {
	ctx := context.Background()
	sess := &fakeSession{treeID: "t1", email: "ada@example.com", id: "p-ada"}

	t.Run("locked owner gets no wishes", func(t *testing.T) {
		api := ownerTree()
		api.wishes = []model.Wish{{Text: "early"}}
		l := newLoader(api, sess, beforeChristmas)
		page, err := l.Load(ctx, "t1")
		require.NoError(t, err)

		view := l.Wishes(ctx, page)
		assert.False(t, view.Reveal.Revealed)
		assert.Empty(t, view.Wishes)
	})

	t.Run("revealed owner", func(t *testing.T) {
		api := ownerTree()
		api.wishes = []model.Wish{{Text: "Joy"}}
		l := newLoader(api, sess, onChristmas)
		page, err := l.Load(ctx, "t1")
		require.NoError(t, err)

		view := l.Wishes(ctx, page)
		assert.True(t, view.Reveal.Revealed)
		require.Len(t, view.Wishes, 1)
	})

	t.Run("server window wins over the local schedule", func(t *testing.T) {
		api := &windowAPI{fakeAPI: ownerTree(), start: onChristmas.Add(-time.Hour)}
		l := newLoader(api, sess, onChristmas)
		page, err := l.Load(ctx, "t1")
		require.NoError(t, err)

		view := l.Wishes(ctx, page)
		assert.Equal(t, api.start, view.Reveal.Window.Start)
		assert.True(t, view.Reveal.Revealed)
	})

	t.Run("list failure degrades to the local countdown", func(t *testing.T) {
		api := ownerTree()
		api.wishesErr = errors.New("offline")
		l := newLoader(api, sess, beforeChristmas)
		page, err := l.Load(ctx, "t1")
		require.NoError(t, err)

		view := l.Wishes(ctx, page)
		assert.Error(t, view.Err)
		assert.Equal(t, gate.Countdown{Hours: 1}, view.Reveal.Remaining)
	})
}

// =========================================================================
// WATCH
// =========================================================================

func TestWatcherRefreshesAndStops(t *testing.T) {
	api := ownerTree()
	sess := &fakeSession{treeID: "other", id: "p-bob"}
	l := newLoader(api, sess, beforeChristmas)

	page, err := l.Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, gate.SubmissionNone, page.Submission.State)

	w := NewWatcher(l)
	w.RefetchInterval = 5 * time.Millisecond
	w.TickInterval = 7 * time.Millisecond

	var (
		mu     sync.Mutex
		latest *Page
	)
	w.OnUpdate = func(p *Page) {
		mu.Lock()
		latest = p
		mu.Unlock()
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, page) }()

	// Our placement arrives from another device.
	api.mu.Lock()
	api.ornaments = append(api.ornaments, model.Ornament{UserID: "p-bob", Name: "Bob"})
	api.mu.Unlock()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return latest != nil && latest.Submission.State == gate.SubmissionDone
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop after cancellation")
	}

	calls := api.listCalls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, calls, api.listCalls.Load(), "no re-fetch after cancellation")
}

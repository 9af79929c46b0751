package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/auth"
	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
	"github.com/stretchr/testify/require"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeStore is an in-memory stand-in for every repository interface. It
// mirrors the SQLite rules the services rely on: unique emails, one
// ornament per (tree, participant), NotFound for unknown ids.
type fakeStore struct {
	participants map[string]*model.Participant
	trees        map[string]*model.Tree
	ornaments    []model.Ornament
	wishes       []model.Wish
	posts        []model.Post
	nextID       int

	// set to simulate failures
	listOrnamentsErr error
	createErr        error
}

var (
	_ repository.ParticipantRepository = (*fakeStore)(nil)
	_ repository.TreeRepository        = (*fakeStore)(nil)
	_ repository.OrnamentRepository    = (*fakeStore)(nil)
	_ repository.WishRepository        = (*fakeStore)(nil)
	_ repository.PostRepository        = (*fakeStore)(nil)
)

func newFakeStore() *fakeStore {
	return &fakeStore{
		participants: make(map[string]*model.Participant),
		trees:        make(map[string]*model.Tree),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) CreateParticipantWithTree(_ context.Context, p *model.Participant, t *model.Tree) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.participants {
		if existing.Email == p.Email {
			return apperror.Conflict("participant", "email already registered")
		}
	}
	p.ID = f.id("p")
	t.ID = f.id("t")
	t.OwnerID, t.OwnerName, t.OwnerEmail = p.ID, p.Name, p.Email
	p.TreeID, p.TreeName = t.ID, t.Name

	cp, ct := *p, *t
	f.participants[p.ID] = &cp
	f.trees[t.ID] = &ct
	return nil
}

func (f *fakeStore) GetParticipantByID(_ context.Context, id string) (*model.Participant, error) {
	p, ok := f.participants[id]
	if !ok {
		return nil, apperror.NotFound("participant", id)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetParticipantByEmail(_ context.Context, email string) (*model.Participant, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, p := range f.participants {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperror.NotFound("participant", email)
}

func (f *fakeStore) UpdateParticipant(_ context.Context, p *model.Participant) error {
	if _, ok := f.participants[p.ID]; !ok {
		return apperror.NotFound("participant", p.ID)
	}
	cp := *p
	f.participants[p.ID] = &cp
	return nil
}

func (f *fakeStore) CreateTree(_ context.Context, t *model.Tree) error {
	if _, ok := f.participants[t.OwnerID]; !ok {
		return apperror.NotFound("participant", t.OwnerID)
	}
	t.ID = f.id("t")
	ct := *t
	f.trees[t.ID] = &ct
	return nil
}

func (f *fakeStore) GetTree(_ context.Context, id string) (*model.Tree, error) {
	t, ok := f.trees[id]
	if !ok {
		return nil, apperror.NotFound("tree", id)
	}
	ct := *t
	return &ct, nil
}

func (f *fakeStore) ListTreesByOwner(_ context.Context, ownerID string) ([]model.Tree, error) {
	var out []model.Tree
	for _, t := range f.trees {
		if t.OwnerID == ownerID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) AddOrnament(_ context.Context, o *model.Ornament) error {
	for _, e := range f.ornaments {
		if e.TreeID == o.TreeID && e.UserID == o.UserID {
			return apperror.Conflict("ornament", "you have already decorated this tree")
		}
	}
	o.ID = f.id("o")
	f.ornaments = append(f.ornaments, *o)
	return nil
}

func (f *fakeStore) ListOrnaments(_ context.Context, treeID string) ([]model.Ornament, error) {
	if f.listOrnamentsErr != nil {
		return nil, f.listOrnamentsErr
	}
	out := make([]model.Ornament, 0)
	for _, o := range f.ornaments {
		if o.TreeID == treeID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeStore) AddWish(_ context.Context, w *model.Wish) error {
	w.ID = f.id("w")
	f.wishes = append(f.wishes, *w)
	return nil
}

func (f *fakeStore) ListWishes(_ context.Context, treeID string) ([]model.Wish, error) {
	out := make([]model.Wish, 0)
	for _, w := range f.wishes {
		if w.TreeID == treeID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeStore) CreatePost(_ context.Context, p *model.Post) error {
	p.ID = f.id("post")
	f.posts = append(f.posts, *p)
	return nil
}

func (f *fakeStore) GetPost(_ context.Context, id string) (*model.Post, error) {
	for _, p := range f.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, apperror.NotFound("post", id)
}

func (f *fakeStore) ListPosts(_ context.Context, kind model.PostKind, opts repository.ListOptions) ([]model.Post, error) {
	out := make([]model.Post, 0)
	for i := len(f.posts) - 1; i >= 0; i-- {
		if kind == "" || f.posts[i].Kind == kind {
			out = append(out, f.posts[i])
		}
	}
	return out, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	require.NoError(t, err)
	return ts
}

// christmas2025 is the reveal window every service test runs against.
var christmas2025 = gate.Schedule{
	Month:    time.December,
	Day:      25,
	Year:     2025,
	Length:   24 * time.Hour,
	Location: time.UTC,
}

// services bundles the services wired to one fakeStore with a fixed clock.
type services struct {
	store        *fakeStore
	participants *ParticipantService
	trees        *TreeService
	ornaments    *OrnamentService
	wishes       *WishService
	content      *ContentService
}

func newServices(t *testing.T, now time.Time, admins ...string) *services {
	t.Helper()
	store := newFakeStore()
	logger := testLogger()

	trees := NewTreeService(store, store, store, christmas2025, "https://ww.example", logger)
	trees.now = func() time.Time { return now }

	return &services{
		store:        store,
		participants: NewParticipantService(store, testTokens(t), admins, nil, logger),
		trees:        trees,
		ornaments:    NewOrnamentService(trees, store, store, nil, logger),
		wishes:       NewWishService(trees, store, store, nil, logger),
		content:      NewContentService(store, store, logger),
	}
}

func (s *services) signup(t *testing.T, name, email string) *model.Participant {
	t.Helper()
	res, err := s.participants.Signup(context.Background(), name, email)
	require.NoError(t, err)
	return res.Participant
}

var (
	beforeChristmas = time.Date(2025, time.December, 20, 12, 0, 0, 0, time.UTC)
	onChristmas     = time.Date(2025, time.December, 25, 9, 30, 0, 0, time.UTC)
)

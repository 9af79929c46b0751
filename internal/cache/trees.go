package cache

import (
	"context"
	"log/slog"

	"github.com/goccy/go-json"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
)

var _ repository.TreeRepository = (*TreeRepository)(nil)

// TreeRepository is a read-through cache in front of another
// repository.TreeRepository. Only GetTree is cached.
type TreeRepository struct {
	inner  repository.TreeRepository
	store  Store
	logger *slog.Logger
}

func NewTreeRepository(inner repository.TreeRepository, store Store, logger *slog.Logger) *TreeRepository {
	return &TreeRepository{inner: inner, store: store, logger: logger}
}

// cachedTree carries the fields model.Tree hides from JSON.
type cachedTree struct {
	model.Tree
	OwnerName  string `json:"ownerName"`
	OwnerEmail string `json:"ownerEmail"`
}

func treeKey(id string) string { return "tree:" + id }

func (r *TreeRepository) GetTree(ctx context.Context, id string) (*model.Tree, error) {
	if raw, ok := r.store.Get(treeKey(id)); ok {
		var ct cachedTree
		if err := json.Unmarshal(raw, &ct); err == nil {
			t := ct.Tree
			t.OwnerName = ct.OwnerName
			t.OwnerEmail = ct.OwnerEmail
			return &t, nil
		}
		// A corrupt entry is dropped and reloaded.
		r.store.Delete(treeKey(id))
	}

	t, err := r.inner.GetTree(ctx, id)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(cachedTree{Tree: *t, OwnerName: t.OwnerName, OwnerEmail: t.OwnerEmail})
	if err != nil {
		r.logger.Warn("cache: encoding tree", slog.String("treeID", id), slog.String("error", err.Error()))
		return t, nil
	}
	r.store.Set(treeKey(id), raw)
	return t, nil
}

func (r *TreeRepository) CreateTree(ctx context.Context, t *model.Tree) error {
	return r.inner.CreateTree(ctx, t)
}

func (r *TreeRepository) ListTreesByOwner(ctx context.Context, ownerID string) ([]model.Tree, error) {
	return r.inner.ListTreesByOwner(ctx, ownerID)
}

package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetPost(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin, _ := signUp(t, db, "Kiti", "kiti@example.com")

	p := &model.Post{Kind: model.PostEcho, Title: "Winter notes", AudioURL: "https://cdn.example.com/a.mp3", AuthorID: admin.ID}
	require.NoError(t, db.CreatePost(ctx, p))

	got, err := db.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PostEcho, got.Kind)
	assert.Equal(t, "https://cdn.example.com/a.mp3", got.AudioURL)

	_, err = db.GetPost(ctx, "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestListPosts_FiltersByKind(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	admin, _ := signUp(t, db, "Kiti", "kiti@example.com")

	for _, kind := range []model.PostKind{model.PostEcho, model.PostScribble, model.PostScribble} {
		require.NoError(t, db.CreatePost(ctx, &model.Post{Kind: kind, Title: string(kind), AuthorID: admin.ID}))
	}

	all, err := db.ListPosts(ctx, "", repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	scribbles, err := db.ListPosts(ctx, model.PostScribble, repository.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, scribbles, 2)
	for _, p := range scribbles {
		assert.Equal(t, model.PostScribble, p.Kind)
	}

	page, err := db.ListPosts(ctx, "", repository.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

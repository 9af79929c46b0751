package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrnamentAdd(t *testing.T) {
	s := newServices(t, beforeChristmas)
	ada := s.signup(t, "Ada", "ada@example.com")
	bob := s.signup(t, "Bob", "bob@example.com")

	placed, err := s.ornaments.Add(context.Background(), ada.TreeID, bob.ID, OrnamentInput{
		Icon: " bauble ", Message: "  Happy holidays ", X: 12.5, Y: 99,
	})
	require.NoError(t, err)

	assert.Equal(t, model.IconBauble, placed.Ornament.Icon)
	assert.Equal(t, "Happy holidays", placed.Ornament.Message, "author sees their own message")
	assert.Equal(t, bob.ID, placed.Ornament.UserID)
	assert.Equal(t, "Bob", placed.Ornament.Name)
	require.Len(t, placed.Ornaments, 1)
	assert.True(t, placed.Ornaments[0].Locked, "the listing is gated like any other")
}

func TestOrnamentAdd_SecondPlacementRejected(t *testing.T) {
	s := newServices(t, beforeChristmas)
	ada, bob := decorated(t, s)

	_, err := s.ornaments.Add(context.Background(), ada.TreeID, bob.ID, OrnamentInput{Icon: model.IconLove, X: 1, Y: 1})

	assert.ErrorIs(t, err, apperror.ErrConflict)
	assert.Len(t, s.store.ornaments, 1)
}

func TestOrnamentAdd_OwnerCannotDecorateOwnTree(t *testing.T) {
	s := newServices(t, beforeChristmas)
	ada := s.signup(t, "Ada", "ada@example.com")

	_, err := s.ornaments.Add(context.Background(), ada.TreeID, ada.ID, OrnamentInput{Icon: model.IconStar})

	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestOrnamentAdd_Validation(t *testing.T) {
	s := newServices(t, beforeChristmas)
	ada := s.signup(t, "Ada", "ada@example.com")
	bob := s.signup(t, "Bob", "bob@example.com")

	long := make([]rune, MaxOrnamentMessageLength+1)
	for i := range long {
		long[i] = '✨'
	}

	tests := []struct {
		name      string
		in        OrnamentInput
		wantField string
	}{
		{"unknown icon", OrnamentInput{Icon: "reindeer", X: 1, Y: 1}, "ornament"},
		{"x below range", OrnamentInput{Icon: model.IconStar, X: -1, Y: 1}, "x"},
		{"y above range", OrnamentInput{Icon: model.IconStar, X: 1, Y: 100.5}, "y"},
		{"message too long", OrnamentInput{Icon: model.IconStar, Message: string(long)}, "message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ornaments.Add(context.Background(), ada.TreeID, bob.ID, tt.in)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr), "got %v", err)
			assert.ErrorIs(t, err, apperror.ErrValidation)
			assert.Equal(t, tt.wantField, appErr.Field)
		})
	}
}

func TestOrnamentAdd_Boundaries(t *testing.T) {
	s := newServices(t, beforeChristmas)
	ada := s.signup(t, "Ada", "ada@example.com")
	bob := s.signup(t, "Bob", "bob@example.com")

	_, err := s.ornaments.Add(context.Background(), ada.TreeID, bob.ID, OrnamentInput{Icon: model.IconStar, X: 0, Y: 100})

	assert.NoError(t, err, "0 and 100 are inside the canvas")
}

func TestOrnamentAdd_UnknownTree(t *testing.T) {
	s := newServices(t, beforeChristmas)
	bob := s.signup(t, "Bob", "bob@example.com")

	_, err := s.ornaments.Add(context.Background(), "ghost", bob.ID, OrnamentInput{Icon: model.IconStar})

	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestOrnamentAdd_ListFailureDoesNotPlace(t *testing.T) {
	s := newServices(t, beforeChristmas)
	ada := s.signup(t, "Ada", "ada@example.com")
	bob := s.signup(t, "Bob", "bob@example.com")
	s.store.listOrnamentsErr = errors.New("db locked")

	_, err := s.ornaments.Add(context.Background(), ada.TreeID, bob.ID, OrnamentInput{Icon: model.IconStar})

	assert.Error(t, err)
	assert.Empty(t, s.store.ornaments)
}

func TestOrnamentAdd_RequiresParticipant(t *testing.T) {
	s := newServices(t, beforeChristmas)
	ada := s.signup(t, "Ada", "ada@example.com")

	_, err := s.ornaments.Add(context.Background(), ada.TreeID, "", OrnamentInput{Icon: model.IconStar})

	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

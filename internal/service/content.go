package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
)

const (
	MaxPostTitleLength = 200
	MaxPostBodyLength  = 50000
	DefaultListLimit   = 20
	MaxListLimit       = 100
)

// PostInput is an admin upload to kiti's room.
type PostInput struct {
	Kind     model.PostKind
	Title    string
	Body     string
	AudioURL string
}

// ContentService serves kiti's room: echoes (audio summaries) and
// scribbles (short posts). Any signed-in participant may read; only admins
// may upload.
type ContentService struct {
	posts        repository.PostRepository
	participants repository.ParticipantRepository
	logger       *slog.Logger
}

func NewContentService(posts repository.PostRepository, participants repository.ParticipantRepository, logger *slog.Logger) *ContentService {
	return &ContentService{posts: posts, participants: participants, logger: logger}
}

// List returns posts newest first. An empty kind lists both shelves.
func (s *ContentService) List(ctx context.Context, kind model.PostKind, limit, offset int) ([]model.Post, error) {
	if kind != "" && !kind.Valid() {
		return nil, apperror.ValidationFailed("kind", fmt.Sprintf("unknown kind %q", kind))
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.posts.ListPosts(ctx, kind, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

func (s *ContentService) Get(ctx context.Context, id string) (*model.Post, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	return s.posts.GetPost(ctx, id)
}

// Create stores a post by authorID, who must be an admin. An echo needs an
// absolute http(s) audio URL; a scribble needs a body.
func (s *ContentService) Create(ctx context.Context, authorID string, in PostInput) (*model.Post, error) {
	author, err := s.participants.GetParticipantByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if !author.Admin {
		return nil, apperror.Forbidden("only admins can upload to kiti's room")
	}

	if !in.Kind.Valid() {
		return nil, apperror.ValidationFailed("kind", fmt.Sprintf("unknown kind %q", in.Kind))
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "title is required")
	}
	if len(title) > MaxPostTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxPostTitleLength))
	}
	body := strings.TrimSpace(in.Body)
	if len(body) > MaxPostBodyLength {
		return nil, apperror.ValidationFailed("body",
			fmt.Sprintf("body must be %d characters or less", MaxPostBodyLength))
	}

	audio := strings.TrimSpace(in.AudioURL)
	switch in.Kind {
	case model.PostEcho:
		u, err := url.Parse(audio)
		if audio == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, apperror.ValidationFailed("audioUrl", "an echo needs an http(s) audio URL")
		}
	case model.PostScribble:
		if body == "" {
			return nil, apperror.ValidationFailed("body", "a scribble needs a body")
		}
		audio = ""
	}

	p := &model.Post{Kind: in.Kind, Title: title, Body: body, AudioURL: audio, AuthorID: author.ID}
	if err := s.posts.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("postID", p.ID),
		slog.String("kind", string(p.Kind)),
	)
	return p, nil
}

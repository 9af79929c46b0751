// Package service holds the business rules between the HTTP handlers and
// the repositories:
//
//	Handler (HTTP)  → Service (rules)  → Repository (SQL)
//
// Services take repository interfaces, not *sqlite.DB, so tests run them
// against small in-memory fakes. They return apperror values for anything
// a client caused; handlers turn those into status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/wellwishers/internal/apperror"
	"github.com/sakif/wellwishers/internal/auth"
	"github.com/sakif/wellwishers/internal/metrics"
	"github.com/sakif/wellwishers/internal/model"
	"github.com/sakif/wellwishers/internal/repository"
)

const (
	MaxNameLength  = 80
	MaxEmailLength = 254
)

// ParticipantService signs participants in, by name and email or through
// Google, and issues their session tokens.
type ParticipantService struct {
	participants repository.ParticipantRepository
	tokens       *auth.TokenService
	admins       map[string]bool
	metrics      metrics.Recorder
	logger       *slog.Logger
}

// NewParticipantService flags every email in adminEmails as an admin.
// Matching is case-insensitive.
func NewParticipantService(
	participants repository.ParticipantRepository,
	tokens *auth.TokenService,
	adminEmails []string,
	rec metrics.Recorder,
	logger *slog.Logger,
) *ParticipantService {
	admins := make(map[string]bool, len(adminEmails))
	for _, e := range adminEmails {
		if e = normalizeEmail(e); e != "" {
			admins[e] = true
		}
	}
	if rec == nil {
		rec = metrics.Noop()
	}
	return &ParticipantService{
		participants: participants,
		tokens:       tokens,
		admins:       admins,
		metrics:      rec,
		logger:       logger,
	}
}

// AuthResult bundles the participant and their session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	Participant *model.Participant
	Token       string
	Created     bool // first sign-in for this email
}

// Signup creates the participant on first sight of an email, together with
// their first tree, and otherwise signs the existing participant back in.
// The stored display name is kept on later sign-ins; the email is the
// identity, not the name.
func (s *ParticipantService) Signup(ctx context.Context, name, email string) (*AuthResult, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxNameLength))
	}
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if len(email) > MaxEmailLength || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "email is not valid")
	}

	p, created, err := s.findOrCreate(ctx, name, email, "")
	if err != nil {
		return nil, err
	}
	return s.issue(p, created)
}

// LoginWithGoogle signs in the participant matching the verified Google
// email, creating one if needed, and remembers the Google account id.
func (s *ParticipantService) LoginWithGoogle(ctx context.Context, gu *auth.GoogleUser) (*AuthResult, error) {
	if gu == nil {
		return nil, fmt.Errorf("service/participant: Google user must not be nil")
	}

	name := strings.TrimSpace(gu.Name)
	if name == "" {
		name, _, _ = strings.Cut(gu.Email, "@")
	}

	p, created, err := s.findOrCreate(ctx, name, normalizeEmail(gu.Email), gu.Sub)
	if err != nil {
		return nil, err
	}

	if p.GoogleID != gu.Sub {
		p.GoogleID = gu.Sub
		if err := s.participants.UpdateParticipant(ctx, p); err != nil {
			return nil, fmt.Errorf("service/participant: linking Google account: %w", err)
		}
	}

	s.logger.Info("participant authenticated via Google",
		slog.String("participantID", p.ID),
	)
	return s.issue(p, created)
}

// Get returns the participant for an authenticated request.
func (s *ParticipantService) Get(ctx context.Context, id string) (*model.Participant, error) {
	if id == "" {
		return nil, apperror.Unauthorized("sign in first")
	}
	return s.participants.GetParticipantByID(ctx, id)
}

// findOrCreate reports created=true when a new participant was inserted.
// A concurrent signup for the same email loses the UNIQUE race and falls
// back to reading the winner's row.
func (s *ParticipantService) findOrCreate(ctx context.Context, name, email, googleID string) (*model.Participant, bool, error) {
	p, err := s.participants.GetParticipantByEmail(ctx, email)
	switch {
	case err == nil:
		return s.refreshAdmin(ctx, p)
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, false, fmt.Errorf("service/participant: looking up %s: %w", email, err)
	}

	p = &model.Participant{
		Name:     name,
		Email:    email,
		Admin:    s.admins[email],
		GoogleID: googleID,
	}
	tree := &model.Tree{Name: model.DefaultTreeName(name)}

	if err := s.participants.CreateParticipantWithTree(ctx, p, tree); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			existing, getErr := s.participants.GetParticipantByEmail(ctx, email)
			if getErr != nil {
				return nil, false, fmt.Errorf("service/participant: re-reading %s: %w", email, getErr)
			}
			return s.refreshAdmin(ctx, existing)
		}
		return nil, false, fmt.Errorf("service/participant: creating %s: %w", email, err)
	}

	s.metrics.IncSignups()
	s.logger.Info("participant created",
		slog.String("participantID", p.ID),
		slog.String("treeID", p.TreeID),
	)
	return p, true, nil
}

// refreshAdmin applies the current admin list to an existing participant.
func (s *ParticipantService) refreshAdmin(ctx context.Context, p *model.Participant) (*model.Participant, bool, error) {
	if want := s.admins[p.Email]; want != p.Admin {
		p.Admin = want
		if err := s.participants.UpdateParticipant(ctx, p); err != nil {
			return nil, false, fmt.Errorf("service/participant: updating admin flag: %w", err)
		}
	}
	return p, false, nil
}

func (s *ParticipantService) issue(p *model.Participant, created bool) (*AuthResult, error) {
	token, err := s.tokens.Generate(p.ID)
	if err != nil {
		return nil, fmt.Errorf("service/participant: generating token for %s: %w", p.ID, err)
	}
	return &AuthResult{Participant: p, Token: token, Created: created}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

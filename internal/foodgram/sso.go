package foodgram

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/samber/lo"
)

// ExternalIdentity is a user vouched for by a single sign-on provider.
type ExternalIdentity struct {
	Email     string
	Username  string
	FirstName string
	LastName  string
	Admin     bool
}

var invalidUsernameChars = regexp.MustCompile(`[^\w.@+-]+`)

// LoginExternal returns the account matching the email of id, creating it on
// first sign in. Accounts created this way get a random password. Admin rights
// granted by the provider are applied, they are never revoked here.
func (s *Service) LoginExternal(ctx context.Context, id ExternalIdentity) (*database.User, error) {
	email := strings.TrimSpace(id.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: identity has no email address", ErrUnauthorized)
	}

	user, err := s.db.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		if !user.IsActive {
			return nil, ErrUnauthorized
		}
	case database.IsNotFound(err):
		if user, err = s.createExternalUser(ctx, email, id); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if id.Admin && !user.IsAdmin() {
		if err := s.db.SetAdmin(ctx, user.ID, true); err != nil {
			return nil, fmt.Errorf("failed to grant admin rights: %w", err)
		}
		user.IsStaff = true
		user.IsSuperuser = true
	}
	return user, nil
}

func (s *Service) createExternalUser(ctx context.Context, email string, id ExternalIdentity) (*database.User, error) {
	username, err := s.freeUsername(ctx, id.Username, email)
	if err != nil {
		return nil, err
	}

	user := &database.User{
		Username:  username,
		Email:     email,
		FirstName: truncate(lo.CoalesceOrEmpty(strings.TrimSpace(id.FirstName), username), 150),
		LastName:  truncate(strings.TrimSpace(id.LastName), 150),
	}
	if err := s.db.CreateUser(ctx, user, uuid.NewString()+uuid.NewString()); err != nil {
		return nil, err
	}
	log.Info("User created on first sign in", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// freeUsername picks an unused username from the preferred name or the local
// part of the email, adding a random suffix when it is taken.
func (s *Service) freeUsername(ctx context.Context, preferred, email string) (string, error) {
	base := invalidUsernameChars.ReplaceAllString(strings.TrimSpace(preferred), "")
	if base == "" {
		local, _, _ := strings.Cut(email, "@")
		base = invalidUsernameChars.ReplaceAllString(local, "")
	}
	if base == "" {
		base = "user"
	}
	base = truncate(base, 140)

	candidate := base
	for range 5 {
		taken, _, err := s.db.UsernameOrEmailTaken(ctx, candidate, email)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + uuid.NewString()[:6]
	}
	return "", fmt.Errorf("failed to find a free username for %q", base)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

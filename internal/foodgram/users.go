package foodgram

import (
	"context"
	"fmt"
	"strings"

	"github.com/jon4hz/foodgram/internal/database"
	"github.com/jon4hz/foodgram/internal/gravatar"
	"github.com/samber/lo"
)

// RegisterInput is the payload of a sign up.
type RegisterInput struct {
	Email     string `json:"email" validate:"required,max=254,email"`
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
}

type passwordChange struct {
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

// Register creates an account. Username and email must be unused.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Profile, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	if verr := validateStruct(&in); verr != nil {
		return nil, verr
	}

	usernameTaken, emailTaken, err := s.db.UsernameOrEmailTaken(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	verr := &ValidationError{}
	if usernameTaken {
		verr.Add("username", "A user with that username already exists.")
	}
	if emailTaken {
		verr.Add("email", "A user with that email already exists.")
	}
	if !verr.Empty() {
		return nil, verr
	}

	user := &database.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}
	if err := s.db.CreateUser(ctx, user, in.Password); err != nil {
		if database.IsUniqueViolation(err) {
			// lost a race against a concurrent sign up
			return nil, newValidationError(NonFieldErrors, "A user with that username or email already exists.")
		}
		return nil, err
	}
	return &Profile{User: *user, Avatar: s.avatar(user)}, nil
}

// CreateUser registers an account from the command line. Admins may edit and
// delete every recipe.
func (s *Service) CreateUser(ctx context.Context, in RegisterInput, admin bool) (*Profile, error) {
	profile, err := s.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if admin {
		if err := s.db.SetAdmin(ctx, profile.User.ID, true); err != nil {
			return nil, fmt.Errorf("failed to grant admin rights: %w", err)
		}
		profile.User.IsStaff = true
		profile.User.IsSuperuser = true
	}
	return profile, nil
}

// SetUserActive enables or disables the account registered with email.
func (s *Service) SetUserActive(ctx context.Context, email string, active bool) (*database.User, error) {
	user, err := s.db.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.db.SetActive(ctx, user.ID, active); err != nil {
		return nil, err
	}
	user.IsActive = active
	if !active {
		// revoke API access right away, sessions are rejected on their next request
		if err := s.db.DeleteToken(ctx, user.ID); err != nil {
			return nil, err
		}
	}
	return user, nil
}

// Me returns the profile of the calling user.
func (s *Service) Me(_ context.Context, viewer *database.User) (*Profile, error) {
	if err := requireUser(viewer); err != nil {
		return nil, err
	}
	return &Profile{User: *viewer, Avatar: s.avatar(viewer)}, nil
}

// GetProfile returns a single user as seen by the viewer.
func (s *Service) GetProfile(ctx context.Context, viewer *database.User, id uint) (*Profile, error) {
	user, err := s.db.GetUserByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, notFound("user", id)
		}
		return nil, err
	}
	profiles, err := s.profiles(ctx, viewer, []database.User{*user})
	if err != nil {
		return nil, err
	}
	return &profiles[0], nil
}

// ListProfiles returns a page of users ordered by id.
func (s *Service) ListProfiles(ctx context.Context, viewer *database.User, page Page) ([]Profile, int64, error) {
	users, total, err := s.db.ListUsers(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	profiles, err := s.profiles(ctx, viewer, users)
	if err != nil {
		return nil, 0, err
	}
	return profiles, total, nil
}

// SetPassword replaces the password of the viewer after checking the current one.
func (s *Service) SetPassword(ctx context.Context, viewer *database.User, currentPassword, newPassword string) error {
	if err := requireUser(viewer); err != nil {
		return err
	}
	if verr := validateStruct(&passwordChange{NewPassword: newPassword, CurrentPassword: currentPassword}); verr != nil {
		return verr
	}
	if !viewer.CheckPassword(currentPassword) {
		return newValidationError("current_password", "Invalid password.")
	}
	if err := s.db.SetPassword(ctx, viewer.ID, newPassword); err != nil {
		if database.IsNotFound(err) {
			return notFound("user", viewer.ID)
		}
		return err
	}
	return nil
}

// Login checks email and password and returns the API token of the user.
func (s *Service) Login(ctx context.Context, email, password string) (*database.User, string, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		verr := &ValidationError{}
		if strings.TrimSpace(email) == "" {
			verr.Add("email", "This field is required.")
		}
		if password == "" {
			verr.Add("password", "This field is required.")
		}
		return nil, "", verr
	}

	user, err := s.db.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if !user.IsActive || !user.CheckPassword(password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.db.GetOrCreateToken(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}
	return user, token.Key, nil
}

// Logout revokes the API token of the viewer.
func (s *Service) Logout(ctx context.Context, viewer *database.User) error {
	if err := requireUser(viewer); err != nil {
		return err
	}
	return s.db.DeleteToken(ctx, viewer.ID)
}

// AuthenticateToken resolves an API token to an active user.
func (s *Service) AuthenticateToken(ctx context.Context, key string) (*database.User, error) {
	user, err := s.db.GetUserByToken(ctx, key)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// AuthenticateSession resolves the user id stored in a browser session.
func (s *Service) AuthenticateSession(ctx context.Context, userID uint) (*database.User, error) {
	user, err := s.db.GetUserByID(ctx, userID)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}
	return user, nil
}

// profiles resolves is_subscribed for a batch of users with a single query.
func (s *Service) profiles(ctx context.Context, viewer *database.User, users []database.User) ([]Profile, error) {
	subscribed := map[uint]bool{}
	if viewer != nil && len(users) > 0 {
		var err error
		subscribed, err = s.db.SubscribedAuthorIDs(ctx, viewer.ID, lo.Map(users, func(u database.User, _ int) uint { return u.ID }))
		if err != nil {
			return nil, err
		}
	}
	return lo.Map(users, func(u database.User, _ int) Profile {
		return Profile{User: u, IsSubscribed: subscribed[u.ID], Avatar: s.avatar(&u)}
	}), nil
}

func (s *Service) avatar(u *database.User) string {
	if u == nil {
		return ""
	}
	return gravatar.AvatarURL(u.Email, s.gravatar)
}

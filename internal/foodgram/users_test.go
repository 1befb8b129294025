package foodgram

import (
	"strings"

	"github.com/jon4hz/foodgram/internal/database"
)

func (s *ServiceTestSuite) TestRegister() {
	profile, err := s.svc.Register(s.ctx, RegisterInput{
		Email:     "  vasya@example.com ",
		Username:  "vasya.pupkin",
		FirstName: "Vasya",
		LastName:  "Pupkin",
		Password:  "Qwerty123",
	})
	s.Require().NoError(err)
	s.Equal("vasya@example.com", profile.User.Email)
	s.False(profile.IsSubscribed)
	s.True(strings.HasPrefix(profile.Avatar, "https://www.gravatar.com/avatar/"))

	user, err := s.db.GetUserByID(s.ctx, profile.User.ID)
	s.Require().NoError(err)
	s.NotEqual("Qwerty123", user.PasswordHash, "passwords are stored hashed")
	s.True(user.CheckPassword("Qwerty123"))
}

func (s *ServiceTestSuite) TestRegister_Validation() {
	s.register("taken")

	valid := RegisterInput{
		Email:     "new@example.com",
		Username:  "newcomer",
		FirstName: "New",
		LastName:  "Comer",
		Password:  "long-enough",
	}

	tests := []struct {
		name   string
		mutate func(in *RegisterInput)
		field  string
	}{
		{name: "missing email", mutate: func(in *RegisterInput) { in.Email = "" }, field: "email"},
		{name: "bad email", mutate: func(in *RegisterInput) { in.Email = "nope" }, field: "email"},
		{name: "bad username", mutate: func(in *RegisterInput) { in.Username = "has space" }, field: "username"},
		{name: "username too long", mutate: func(in *RegisterInput) { in.Username = strings.Repeat("a", 151) }, field: "username"},
		{name: "missing first name", mutate: func(in *RegisterInput) { in.FirstName = "" }, field: "first_name"},
		{name: "short password", mutate: func(in *RegisterInput) { in.Password = "short" }, field: "password"},
		{name: "username taken", mutate: func(in *RegisterInput) { in.Username = "taken" }, field: "username"},
		{name: "email taken", mutate: func(in *RegisterInput) { in.Email = "taken@example.com" }, field: "email"},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			in := valid
			tt.mutate(&in)
			_, err := s.svc.Register(s.ctx, in)
			s.requireValidation(err, tt.field)
		})
	}

	s.EqualValues(1, s.countRows(&database.User{}))
}

func (s *ServiceTestSuite) TestLoginLogout() {
	user := s.register("cook")

	_, _, err := s.svc.Login(s.ctx, "cook@example.com", "wrong-password")
	s.ErrorIs(err, ErrInvalidCredentials)
	_, _, err = s.svc.Login(s.ctx, "ghost@example.com", "correct-horse")
	s.ErrorIs(err, ErrInvalidCredentials)
	_, _, err = s.svc.Login(s.ctx, "", "")
	s.requireValidation(err, "email")

	got, key, err := s.svc.Login(s.ctx, "cook@example.com", "correct-horse")
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)
	s.Len(key, 32)

	_, again, err := s.svc.Login(s.ctx, "cook@example.com", "correct-horse")
	s.Require().NoError(err)
	s.Equal(key, again, "logging in twice reuses the token")

	authed, err := s.svc.AuthenticateToken(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(user.ID, authed.ID)

	s.Require().NoError(s.svc.Logout(s.ctx, authed))
	_, err = s.svc.AuthenticateToken(s.ctx, key)
	s.ErrorIs(err, ErrUnauthorized)
	s.ErrorIs(s.svc.Logout(s.ctx, nil), ErrUnauthorized)
}

func (s *ServiceTestSuite) TestAuthenticateSession() {
	user := s.register("cook")

	got, err := s.svc.AuthenticateSession(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("cook", got.Username)

	_, err = s.svc.AuthenticateSession(s.ctx, 9999)
	s.ErrorIs(err, ErrUnauthorized)
}

func (s *ServiceTestSuite) TestSetPassword() {
	user := s.register("cook")

	err := s.svc.SetPassword(s.ctx, user, "not-my-password", "brand-new-secret")
	s.requireValidation(err, "current_password")
	err = s.svc.SetPassword(s.ctx, user, "correct-horse", "short")
	s.requireValidation(err, "new_password")
	s.ErrorIs(s.svc.SetPassword(s.ctx, nil, "correct-horse", "brand-new-secret"), ErrUnauthorized)

	s.Require().NoError(s.svc.SetPassword(s.ctx, user, "correct-horse", "brand-new-secret"))

	_, _, err = s.svc.Login(s.ctx, "cook@example.com", "correct-horse")
	s.ErrorIs(err, ErrInvalidCredentials)
	_, _, err = s.svc.Login(s.ctx, "cook@example.com", "brand-new-secret")
	s.NoError(err)
}

func (s *ServiceTestSuite) TestProfiles() {
	viewer := s.register("viewer")
	s.register("alice")
	bob := s.register("bob")

	_, _, err := s.svc.Subscribe(s.ctx, viewer, bob.ID, -1)
	s.Require().NoError(err)

	profiles, total, err := s.svc.ListProfiles(s.ctx, viewer, Page{Limit: 2, Offset: 1})
	s.Require().NoError(err)
	s.EqualValues(3, total)
	s.Require().Len(profiles, 2)
	s.Equal("alice", profiles[0].User.Username)
	s.False(profiles[0].IsSubscribed)
	s.Equal("bob", profiles[1].User.Username)
	s.True(profiles[1].IsSubscribed)

	me, err := s.svc.Me(s.ctx, viewer)
	s.Require().NoError(err)
	s.Equal("viewer", me.User.Username)
	_, err = s.svc.Me(s.ctx, nil)
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.svc.GetProfile(s.ctx, viewer, 9999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ServiceTestSuite) TestCreateAdmin() {
	author := s.register("chef")
	view := s.createRecipe(author, "cake", map[string]float64{"flour": 1})

	profile, err := s.svc.CreateUser(s.ctx, RegisterInput{
		Email:     "root@example.com",
		Username:  "root",
		FirstName: "Root",
		LastName:  "Admin",
		Password:  "super-secret",
	}, true)
	s.Require().NoError(err)
	s.True(profile.User.IsAdmin())

	admin, err := s.db.GetUserByID(s.ctx, profile.User.ID)
	s.Require().NoError(err)
	s.True(admin.IsStaff)
	s.True(admin.IsSuperuser)
	s.Require().NoError(s.svc.DeleteRecipe(s.ctx, admin, view.Recipe.ID))
}

func (s *ServiceTestSuite) TestSetUserActive() {
	user := s.register("cook")
	_, key, err := s.svc.Login(s.ctx, "cook@example.com", "correct-horse")
	s.Require().NoError(err)

	disabled, err := s.svc.SetUserActive(s.ctx, " cook@example.com ", false)
	s.Require().NoError(err)
	s.False(disabled.IsActive)

	_, err = s.svc.AuthenticateToken(s.ctx, key)
	s.ErrorIs(err, ErrUnauthorized)
	_, err = s.svc.AuthenticateSession(s.ctx, user.ID)
	s.ErrorIs(err, ErrUnauthorized)
	_, _, err = s.svc.Login(s.ctx, "cook@example.com", "correct-horse")
	s.ErrorIs(err, ErrInvalidCredentials)

	_, err = s.svc.SetUserActive(s.ctx, "cook@example.com", true)
	s.Require().NoError(err)
	_, _, err = s.svc.Login(s.ctx, "cook@example.com", "correct-horse")
	s.NoError(err)

	_, err = s.svc.SetUserActive(s.ctx, "ghost@example.com", false)
	s.ErrorIs(err, ErrNotFound)
}

package foodgram

import (
	"github.com/jon4hz/foodgram/internal/database"
)

func (s *ServiceTestSuite) TestLoginExternal_CreatesUserOnce() {
	id := ExternalIdentity{Email: "ada@example.com", Username: "ada lovelace!", FirstName: "Ada", LastName: "Lovelace"}

	user, err := s.svc.LoginExternal(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("adalovelace", user.Username)
	s.Equal("Ada", user.FirstName)
	s.False(user.IsAdmin())
	s.NotEmpty(user.PasswordHash)

	again, err := s.svc.LoginExternal(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(user.ID, again.ID)
	s.EqualValues(1, s.countRows(&database.User{}))
}

func (s *ServiceTestSuite) TestLoginExternal_ExistingAccount() {
	alice := s.register("alice")

	user, err := s.svc.LoginExternal(s.ctx, ExternalIdentity{Email: "alice@example.com", Username: "someone-else", Admin: true})
	s.Require().NoError(err)
	s.Equal(alice.ID, user.ID)
	s.Equal("alice", user.Username)
	s.True(user.IsAdmin())

	stored, err := s.db.GetUserByID(s.ctx, alice.ID)
	s.Require().NoError(err)
	s.True(stored.IsAdmin())
}

func (s *ServiceTestSuite) TestLoginExternal_UsernameCollision() {
	s.register("bob")

	user, err := s.svc.LoginExternal(s.ctx, ExternalIdentity{Email: "bob@corp.example.com"})
	s.Require().NoError(err)
	s.Regexp(`^bob-[0-9a-f]{6}$`, user.Username)
	s.Equal(user.Username, user.FirstName)
}

func (s *ServiceTestSuite) TestLoginExternal_Rejected() {
	_, err := s.svc.LoginExternal(s.ctx, ExternalIdentity{Username: "ghost"})
	s.ErrorIs(err, ErrUnauthorized)

	carol := s.register("carol")
	s.Require().NoError(s.db.SetActive(s.ctx, carol.ID, false))
	_, err = s.svc.LoginExternal(s.ctx, ExternalIdentity{Email: "carol@example.com"})
	s.ErrorIs(err, ErrUnauthorized)
}

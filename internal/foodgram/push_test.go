package foodgram

import (
	"github.com/jon4hz/foodgram/internal/database"
)

func (s *ServiceTestSuite) TestPushSubscriptions() {
	alice := s.register("alice")
	bob := s.register("bob")
	in := PushSubscriptionInput{
		Endpoint: " https://push.example.com/device ",
		Keys:     PushKeys{P256dh: "key", Auth: "secret"},
	}

	s.Require().NoError(s.svc.RegisterPushSubscription(s.ctx, alice, in))
	s.Require().NoError(s.svc.RegisterPushSubscription(s.ctx, alice, in))
	s.EqualValues(1, s.countRows(&database.PushSubscription{}))

	s.ErrorIs(s.svc.RemovePushSubscription(s.ctx, bob, in.Endpoint), ErrNotFound)
	s.Require().NoError(s.svc.RemovePushSubscription(s.ctx, alice, in.Endpoint))
	s.Zero(s.countRows(&database.PushSubscription{}))
	s.ErrorIs(s.svc.RemovePushSubscription(s.ctx, alice, in.Endpoint), ErrNotFound)
}

func (s *ServiceTestSuite) TestRegisterPushSubscription_Invalid() {
	alice := s.register("alice")

	tests := []struct {
		name  string
		in    PushSubscriptionInput
		field string
	}{
		{name: "missing endpoint", in: PushSubscriptionInput{Keys: PushKeys{P256dh: "k", Auth: "a"}}, field: "endpoint"},
		{name: "endpoint not a url", in: PushSubscriptionInput{Endpoint: "device-1", Keys: PushKeys{P256dh: "k", Auth: "a"}}, field: "endpoint"},
		{name: "missing key", in: PushSubscriptionInput{Endpoint: "https://push.example.com/x", Keys: PushKeys{Auth: "a"}}, field: "keys.p256dh"},
		{name: "missing auth", in: PushSubscriptionInput{Endpoint: "https://push.example.com/x", Keys: PushKeys{P256dh: "k"}}, field: "keys.auth"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.requireValidation(s.svc.RegisterPushSubscription(s.ctx, alice, tt.in), tt.field)
		})
	}
	s.Zero(s.countRows(&database.PushSubscription{}))
	s.ErrorIs(s.svc.RegisterPushSubscription(s.ctx, nil, PushSubscriptionInput{}), ErrUnauthorized)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jon4hz/foodgram/internal/api/models"
	"github.com/jon4hz/foodgram/internal/config"
	"github.com/jon4hz/foodgram/internal/database"
	"github.com/jon4hz/foodgram/internal/foodgram"
	"golang.org/x/oauth2"
)

const sessionOIDCStateKey = "oidc_state"

// ExternalLogin signs in users vouched for by the identity provider.
type ExternalLogin interface {
	LoginExternal(ctx context.Context, id foodgram.ExternalIdentity) (*database.User, error)
}

// OIDCProvider implements browser sign in with an OpenID Connect provider.
type OIDCProvider struct {
	oauth2   *oauth2.Config
	verifier *oidc.IDTokenVerifier
	cfg      *config.OIDCConfig
	users    ExternalLogin
	landing  string
}

// NewOIDCProvider discovers the provider configuration from the issuer.
// After signing in the browser is sent to landingURL.
func NewOIDCProvider(ctx context.Context, cfg *config.OIDCConfig, users ExternalLogin, landingURL string) (*OIDCProvider, error) {
	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return newOIDCProvider(cfg, provider.Endpoint(), verifier, users, landingURL), nil
}

func newOIDCProvider(cfg *config.OIDCConfig, endpoint oauth2.Endpoint, verifier *oidc.IDTokenVerifier, users ExternalLogin, landingURL string) *OIDCProvider {
	return &OIDCProvider{
		oauth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email", "groups"},
		},
		verifier: verifier,
		cfg:      cfg,
		users:    users,
		landing:  landingURL,
	}
}

// Login redirects the browser to the identity provider.
func (p *OIDCProvider) Login(c *gin.Context) {
	state := uuid.NewString()
	session := sessions.Default(c)
	session.Set(sessionOIDCStateKey, state)
	if err := session.Save(); err != nil {
		log.Error("failed to save session", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.Error{Error: "internal server error"})
		return
	}
	c.Redirect(http.StatusFound, p.oauth2.AuthCodeURL(state))
}

type oidcClaims struct {
	Email             string   `json:"email"`
	GivenName         string   `json:"given_name"`
	FamilyName        string   `json:"family_name"`
	PreferredUsername string   `json:"preferred_username"`
	Groups            []string `json:"groups"`
}

// Callback completes the sign in and starts a browser session.
func (p *OIDCProvider) Callback(c *gin.Context) {
	ctx := c.Request.Context()
	session := sessions.Default(c)

	expected, _ := session.Get(sessionOIDCStateKey).(string)
	session.Delete(sessionOIDCStateKey)
	if expected == "" || c.Query("state") != expected {
		abortSignIn(c, "Invalid sign in state.")
		return
	}
	if reason := c.Query("error"); reason != "" {
		log.Warn("identity provider rejected sign in", "error", reason, "description", c.Query("error_description"))
		abortSignIn(c, "Sign in was rejected by the identity provider.")
		return
	}

	token, err := p.oauth2.Exchange(ctx, c.Query("code"))
	if err != nil {
		log.Warn("failed to exchange authorization code", "error", err)
		abortSignIn(c, "Sign in failed.")
		return
	}
	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		log.Warn("token response has no id_token")
		abortSignIn(c, "Sign in failed.")
		return
	}
	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		log.Warn("failed to verify id token", "error", err)
		abortSignIn(c, "Sign in failed.")
		return
	}

	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		log.Warn("failed to decode id token claims", "error", err)
		abortSignIn(c, "Sign in failed.")
		return
	}

	user, err := p.users.LoginExternal(ctx, foodgram.ExternalIdentity{
		Email:     claims.Email,
		Username:  claims.PreferredUsername,
		FirstName: claims.GivenName,
		LastName:  claims.FamilyName,
		Admin:     p.cfg.AdminGroup != "" && slices.Contains(claims.Groups, p.cfg.AdminGroup),
	})
	if err != nil {
		if errors.Is(err, foodgram.ErrUnauthorized) {
			abortSignIn(c, "This account cannot sign in.")
			return
		}
		log.Error("failed to sign in external user", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.Error{Error: "internal server error"})
		return
	}

	if err := StartSession(c, user); err != nil {
		log.Error("failed to save session", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.Error{Error: "internal server error"})
		return
	}
	log.Info("User signed in with OIDC", "user_id", user.ID, "username", user.Username)
	c.Redirect(http.StatusFound, p.landing)
}

func abortSignIn(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.Error{Error: msg})
}

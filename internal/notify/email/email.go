// Package email notifies followers about new recipes by email.
package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/foodgram/internal/config"
	"github.com/jon4hz/foodgram/internal/database"
	mail "github.com/xhit/go-simple-mail/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))

// NotificationService sends notification emails over SMTP.
type NotificationService struct {
	config    *config.EmailConfig
	serverURL string
}

// newRecipeData is the data the new recipe template renders.
type newRecipeData struct {
	RecipientName string
	AuthorName    string
	RecipeName    string
	RecipeURL     string
	CookingTime   int
}

// New creates a new email notification service. serverURL is used to link to
// the recipe.
func New(cfg *config.EmailConfig, serverURL string) *NotificationService {
	return &NotificationService{
		config:    cfg,
		serverURL: strings.TrimSuffix(serverURL, "/"),
	}
}

// NewRecipe tells every follower that author published recipe. Followers
// without an email address are skipped. A failed delivery does not stop the
// remaining ones, the first error is returned.
func (n *NotificationService) NewRecipe(ctx context.Context, author database.User, recipe database.Recipe, followers []database.User) error {
	if n.config == nil || !n.config.Enabled {
		log.Debug("Email notifications are disabled, skipping notification")
		return nil
	}

	subject := fmt.Sprintf("[Foodgram] %s published %s", displayName(author), recipe.Name)

	var client *mail.SMTPClient
	var firstErr error
	for _, follower := range followers {
		if err := ctx.Err(); err != nil {
			return err
		}
		if follower.Email == "" {
			log.Warn("User email is empty, skipping notification", "user", follower.Username)
			continue
		}

		body, err := n.newRecipeBody(author, recipe, follower)
		if err != nil {
			return fmt.Errorf("failed to generate email body: %w", err)
		}

		if client == nil {
			client, err = n.connect()
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := client.Close(); closeErr != nil {
					log.Warn("Failed to close SMTP client", "error", closeErr)
				}
			}()
		}

		if err := n.send(client, follower.Email, subject, body); err != nil {
			log.Error("Failed to send email notification", "to", follower.Email, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		log.Debug("Email notification sent", "to", follower.Email, "recipe_id", recipe.ID)
	}
	return firstErr
}

// newRecipeBody renders the HTML body for one follower.
func (n *NotificationService) newRecipeBody(author database.User, recipe database.Recipe, follower database.User) (string, error) {
	data := newRecipeData{
		RecipientName: displayName(follower),
		AuthorName:    displayName(author),
		RecipeName:    recipe.Name,
		RecipeURL:     n.serverURL + "/recipes/" + strconv.FormatUint(uint64(recipe.ID), 10),
		CookingTime:   recipe.CookingTime,
	}

	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "new_recipe.html", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (n *NotificationService) connect() (*mail.SMTPClient, error) {
	server := mail.NewSMTPClient()
	server.Host = n.config.SMTPHost
	server.Port = n.config.SMTPPort
	server.Username = n.config.Username
	server.Password = n.config.Password

	switch {
	case n.config.UseSSL:
		server.Encryption = mail.EncryptionSSLTLS
	case n.config.UseTLS:
		server.Encryption = mail.EncryptionSTARTTLS
	default:
		server.Encryption = mail.EncryptionNone
	}

	if n.config.InsecureSkipVerify {
		server.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec
	}

	// one connection is reused for all followers of a recipe
	server.KeepAlive = true
	server.ConnectTimeout = 10 * time.Second
	server.SendTimeout = 10 * time.Second

	client, err := server.Connect()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	return client, nil
}

func (n *NotificationService) send(client *mail.SMTPClient, to, subject, body string) error {
	fromName := n.config.FromName
	if fromName == "" {
		fromName = "Foodgram"
	}

	email := mail.NewMSG()
	email.SetFrom(fmt.Sprintf("%s <%s>", fromName, n.config.FromEmail))
	email.AddTo(to)
	email.SetSubject(subject)
	email.SetBody(mail.TextHTML, body)
	if email.Error != nil {
		return email.Error
	}

	if err := email.Send(client); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

func displayName(u database.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

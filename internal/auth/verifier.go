// Package auth resolves the signed-in operator from identity provider tokens
// and tracks the lifecycle of their sessions.
package auth

import (
	"context"
	"errors"
	"fmt"

	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/mamadbah2/waterbill/internal/config"
	"github.com/mamadbah2/waterbill/internal/domain/models"
)

// ErrInvalidToken is returned when an ID token cannot be verified.
var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier turns an identity provider ID token into a Subject.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (models.Subject, error)
	Revoke(ctx context.Context, uid string) error
}

// FirebaseVerifier verifies Firebase Authentication ID tokens.
type FirebaseVerifier struct {
	client *fbauth.Client
}

// NewFirebaseVerifier initializes the Firebase Admin SDK auth client.
func NewFirebaseVerifier(ctx context.Context, cfg config.AuthConfig) (*FirebaseVerifier, error) {
	var opts []option.ClientOption
	if cfg.CredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsPath))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase auth: %w", err)
	}

	return &FirebaseVerifier{client: client}, nil
}

// Verify checks the token signature, expiry and revocation.
func (v *FirebaseVerifier) Verify(ctx context.Context, idToken string) (models.Subject, error) {
	token, err := v.client.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	if err != nil {
		return models.Subject{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	subject := models.Subject{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		subject.Email = email
	}
	return subject, nil
}

// Revoke invalidates the refresh tokens of uid so outstanding ID tokens fail
// the revocation check.
func (v *FirebaseVerifier) Revoke(ctx context.Context, uid string) error {
	if err := v.client.RevokeRefreshTokens(ctx, uid); err != nil {
		return fmt.Errorf("revoke refresh tokens of %s: %w", uid, err)
	}
	return nil
}

// StaticVerifier maps fixed tokens to subjects. It backs AUTH_DISABLED runs
// and tests.
type StaticVerifier struct {
	Tokens map[string]models.Subject
	// Fallback, when set, is returned for any token not in Tokens.
	Fallback *models.Subject
}

// Verify looks the token up.
func (v StaticVerifier) Verify(_ context.Context, idToken string) (models.Subject, error) {
	if subject, ok := v.Tokens[idToken]; ok {
		return subject, nil
	}
	if v.Fallback != nil {
		return *v.Fallback, nil
	}
	return models.Subject{}, ErrInvalidToken
}

// Revoke is a no-op.
func (StaticVerifier) Revoke(context.Context, string) error {
	return nil
}

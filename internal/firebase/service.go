package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"localfelo_backend/internal/config"
	"localfelo_backend/internal/session"
)

// tokenVerifier is the slice of *auth.Client the service uses.
type tokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// FirebaseService resolves backend sessions through Firebase Authentication.
type FirebaseService struct {
	authClient tokenVerifier
	logger     *zap.Logger
}

// NewFirebaseService initializes the Firebase Admin SDK and creates a new FirebaseService.
func NewFirebaseService(cfg *config.Config, logger *zap.Logger) (*FirebaseService, error) {
	if cfg.FirebaseServiceAccountKeyPath == "" {
		return nil, fmt.Errorf("firebase service account key path is required")
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized successfully.")
	return &FirebaseService{authClient: authClient, logger: logger.Named("firebase")}, nil
}

// NewAuthProvider returns the Firebase-backed provider, or nil when Firebase is not configured.
func NewAuthProvider(cfg *config.Config, logger *zap.Logger) (session.AuthProvider, error) {
	if !cfg.FirebaseEnabled() {
		logger.Warn("Firebase is not configured. Sessions resolve from stored client tokens only.")
		return nil, nil
	}
	svc, err := NewFirebaseService(cfg, logger)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// CurrentSession verifies a Firebase ID token. An empty token means no session.
func (s *FirebaseService) CurrentSession(ctx context.Context, idToken string) (*session.Identity, error) {
	if idToken == "" {
		return nil, nil
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, fmt.Errorf("failed to verify Firebase ID token: %w", err)
	}

	s.logger.Debug("Firebase ID token verified successfully", zap.String("uid", token.UID))
	return identityFromToken(token), nil
}

// SignOut revokes all refresh tokens for uid.
func (s *FirebaseService) SignOut(ctx context.Context, uid string) error {
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("Successfully revoked refresh tokens for user", zap.String("uid", uid))
	return nil
}

func identityFromToken(token *auth.Token) *session.Identity {
	id := &session.Identity{UID: token.UID}
	claim := func(name string) string {
		if v, ok := token.Claims[name].(string); ok {
			return v
		}
		return ""
	}
	id.Name = claim("name")
	id.Email = claim("email")
	id.Phone = claim("phone_number")
	return id
}

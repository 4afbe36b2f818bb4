package service

import (
	"context"
	"fmt"
	"time"

	"account-ledger/internal/core/domain"
	"account-ledger/internal/core/ports"
	"account-ledger/pkg/apperror"

	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService on top of the ledger's
// client credentials.
type AuthServiceImpl struct {
	ledger   ports.LedgerService
	tokenSvc ports.TokenService
	log      zerolog.Logger
}

var _ ports.AuthService = (*AuthServiceImpl)(nil)

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(ledger ports.LedgerService, tokenSvc ports.TokenService, log zerolog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		ledger:   ledger,
		tokenSvc: tokenSvc,
		log:      log,
	}
}

// Register creates a new client. The plaintext password never leaves this call.
func (s *AuthServiceImpl) Register(_ context.Context, req ports.RegisterClientRequest) (*domain.Client, error) {
	client, err := s.ledger.RegisterClient(req)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("client_id", client.ID()).Msg("client registered")
	return client, nil
}

// Login authenticates a client and returns a session token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthServiceImpl) Login(_ context.Context, email, password string) (string, time.Time, error) {
	client := s.ledger.Authenticate(email, password)
	if client == nil {
		return "", time.Time{}, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(client.ID())
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	return token, expiry, nil
}

// ChangeCredential replaces the password of an authenticated client.
func (s *AuthServiceImpl) ChangeCredential(_ context.Context, clientID, current, next string) error {
	if current == next {
		return apperror.Validation("new password must differ from the current one")
	}
	if err := s.ledger.ChangeCredential(clientID, current, next); err != nil {
		return err
	}

	s.log.Info().Str("client_id", clientID).Msg("credential changed")
	return nil
}

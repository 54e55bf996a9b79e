package session

import (
	"context"
	"strings"

	"github.com/felixgeelhaar/notebookctl/internal/authclient"
	"github.com/felixgeelhaar/notebookctl/internal/errors"
)

// MinPasswordLength is enforced before a reset request is sent.
const MinPasswordLength = 8

// ForgotPassword asks the gateway to email a reset link.
func (s *Store) ForgotPassword(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.NewAuthValidationError("Email is required")
	}
	resp, err := s.gateway.ForgotPassword(ctx, strings.TrimSpace(email))
	return s.accountOutcome("forgot-password", resp, err, "Unable to send reset link")
}

// ResetPassword sets a new password using the emailed token.
func (s *Store) ResetPassword(ctx context.Context, token, password, confirm string) error {
	switch {
	case token == "":
		return errors.NewAuthValidationError("Reset token is missing.")
	case password == "":
		return errors.NewAuthValidationError("Password is required")
	case len(password) < MinPasswordLength:
		return errors.NewAuthValidationError("Password must be at least 8 characters")
	case password != confirm:
		return errors.NewAuthValidationError("Passwords do not match")
	}
	resp, err := s.gateway.ResetPassword(ctx, token, password)
	return s.accountOutcome("reset-password", resp, err, "Unable to reset password")
}

// VerifyEmail confirms an address with the emailed token.
func (s *Store) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return errors.NewAuthValidationError("Verification token is missing.")
	}
	resp, err := s.gateway.VerifyEmail(ctx, token)
	return s.accountOutcome("verify-email", resp, err, "Verification failed")
}

func (s *Store) accountOutcome(op string, resp *authclient.Response, err error, fallback string) error {
	if err != nil {
		s.logger.WithError(err).Warn("account request failed", "op", op)
		return err
	}
	if resp.OK() {
		return nil
	}
	msg := resp.ErrorMessage()
	if msg == "" {
		msg = fallback
	}
	s.logger.Info("account request rejected", "op", op, "status", resp.StatusCode)
	return errors.NewAuthRejectedError(msg)
}

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	nberrors "github.com/felixgeelhaar/notebookctl/internal/errors"
)

func TestStore_ForgotPassword(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		reply   reply
		wantErr string
		code    nberrors.ErrorCode
		calls   int
	}{
		{name: "sent", email: "a@example.com", reply: reply{status: 200}, calls: 1},
		{name: "missing email", email: "  ", wantErr: "Email is required", code: nberrors.ErrCodeAuthValidation},
		{name: "backend error", email: "a@example.com", reply: reply{status: 404, body: `{"error":"No such user"}`}, wantErr: "No such user", code: nberrors.ErrCodeAuthRejected, calls: 1},
		{name: "fallback", email: "a@example.com", reply: reply{status: 500}, wantErr: "Unable to send reset link", code: nberrors.ErrCodeAuthRejected, calls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway().on("forgot", tt.reply)
			s := New(gw)

			err := s.ForgotPassword(context.Background(), tt.email)
			assert.Equal(t, tt.calls, gw.count("forgot"))
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			var coded *nberrors.Error
			require.True(t, errors.As(err, &coded))
			assert.Equal(t, tt.code, coded.Code)
			assert.Equal(t, tt.wantErr, coded.Message)
		})
	}
}

func TestStore_ResetPasswordValidation(t *testing.T) {
	tests := []struct {
		name     string
		token    string
		password string
		confirm  string
		want     string
	}{
		{"missing token", "", "password123", "password123", "Reset token is missing."},
		{"missing password", "tok", "", "", "Password is required"},
		{"too short", "tok", "short", "short", "Password must be at least 8 characters"},
		{"mismatch", "tok", "password123", "password124", "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			s := New(gw)

			err := s.ResetPassword(context.Background(), tt.token, tt.password, tt.confirm)
			require.Error(t, err)
			assert.True(t, nberrors.HasCode(err, nberrors.ErrCodeAuthValidation))
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, 0, gw.count("reset"))
		})
	}
}

func TestStore_ResetPassword(t *testing.T) {
	gw := newFakeGateway().on("reset", reply{status: 200})
	s := New(gw)

	require.NoError(t, s.ResetPassword(context.Background(), "tok", "password123", "password123"))
	assert.Equal(t, [2]string{"tok", "password123"}, gw.lastReset)

	gw.on("reset", reply{status: 400, body: `{"message":"Token expired"}`})
	err := s.ResetPassword(context.Background(), "tok", "password123", "password123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Token expired")
}

func TestStore_VerifyEmail(t *testing.T) {
	gw := newFakeGateway().on("verify", reply{status: 200})
	s := New(gw)

	err := s.VerifyEmail(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Verification token is missing.")
	assert.Equal(t, 0, gw.count("verify"))

	require.NoError(t, s.VerifyEmail(context.Background(), "tok"))
	assert.Equal(t, "tok", gw.lastVerify)

	gw.on("verify", reply{status: 410})
	err = s.VerifyEmail(context.Background(), "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Verification failed")

	gw.on("verify", reply{err: nberrors.NewAuthUnreachableError("http://auth", errors.New("refused"))})
	err = s.VerifyEmail(context.Background(), "tok")
	assert.True(t, nberrors.HasCode(err, nberrors.ErrCodeAuthUnreachable))
}

func TestStore_AccountOpsLeaveSessionAlone(t *testing.T) {
	s := New(newFakeGateway().on("forgot", reply{status: 500}))
	before := s.Snapshot()

	_ = s.ForgotPassword(context.Background(), "a@example.com")
	assert.Equal(t, before, s.Snapshot())
}

func TestUser_DisplayName(t *testing.T) {
	var nilUser *User
	assert.Equal(t, "User", nilUser.DisplayName())
	assert.Equal(t, "User", (&User{}).DisplayName())
	assert.Equal(t, "ada", (&User{Email: "ada@example.com"}).DisplayName())
	assert.Equal(t, "Ada", (&User{Name: "Ada", Email: "ada@example.com"}).DisplayName())
}

func TestUser_NumericID(t *testing.T) {
	u := decodeUser([]byte(`{"user":{"id":42,"email":"a@example.com"}}`))
	require.NotNil(t, u)
	assert.Equal(t, "42", u.ID)
	assert.Nil(t, decodeUser([]byte(`[]`)))
	assert.Nil(t, decodeUser([]byte(``)))
}

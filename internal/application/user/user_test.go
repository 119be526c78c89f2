package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xiebiao/storefront/internal/domain/user"
	apperrors "github.com/xiebiao/storefront/pkg/errors"
	"github.com/xiebiao/storefront/pkg/jwt"
)

// stubUserService 不做bcrypt，密码明文比较
type stubUserService struct {
	users []*user.User
}

func (s *stubUserService) Register(_ context.Context, email, password, nickname string, role user.Role) (*user.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return nil, apperrors.ErrEmailDuplicate
		}
	}
	u := user.NewUser(email, password, nickname, role)
	u.ID = uint(len(s.users) + 1)
	s.users = append(s.users, u)
	return u, nil
}

func (s *stubUserService) Login(_ context.Context, email, password string) (*user.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			if u.Password != password {
				return nil, apperrors.ErrInvalidPassword
			}
			return u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

type memoryRevoker struct {
	tokens map[string]time.Duration
}

func (r *memoryRevoker) Revoke(_ context.Context, token string, ttl time.Duration) error {
	r.tokens[token] = ttl
	return nil
}

func TestRegister_AdminEmails(t *testing.T) {
	svc := &stubUserService{}
	uc := NewRegisterUseCase(svc, AdminEmails{" Admin@Example.com "})
	ctx := context.Background()

	admin, err := uc.Execute(ctx, RegisterRequest{Email: "admin@example.com", Password: "passw0rd", Nickname: "관리자"})
	require.NoError(t, err)
	assert.Equal(t, "admin", admin.Role)

	buyer, err := uc.Execute(ctx, RegisterRequest{Email: "buyer@example.com", Password: "passw0rd", Nickname: "구매자"})
	require.NoError(t, err)
	assert.Equal(t, "customer", buyer.Role)

	_, err = uc.Execute(ctx, RegisterRequest{Email: "buyer@example.com", Password: "passw0rd", Nickname: "구매자"})
	assert.ErrorIs(t, err, apperrors.ErrEmailDuplicate)
}

func TestLoginLogoutRefresh(t *testing.T) {
	svc := &stubUserService{}
	manager := jwt.NewManager("test-secret", 15*time.Minute, 24*time.Hour)
	ctx := context.Background()

	_, err := NewRegisterUseCase(svc, AdminEmails{"admin@example.com"}).
		Execute(ctx, RegisterRequest{Email: "admin@example.com", Password: "passw0rd", Nickname: "관리자"})
	require.NoError(t, err)

	login := NewLoginUseCase(svc, manager)
	_, err = login.Execute(ctx, LoginRequest{Email: "admin@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidPassword)

	res, err := login.Execute(ctx, LoginRequest{Email: "admin@example.com", Password: "passw0rd"})
	require.NoError(t, err)
	assert.Equal(t, int64(900), res.ExpiresIn)

	claims, err := manager.ParseToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, res.User.ID, claims.UserID)

	refreshed, err := NewRefreshTokenUseCase(manager).Execute(ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	revoker := &memoryRevoker{tokens: map[string]time.Duration{}}
	require.NoError(t, NewLogoutUseCase(revoker, manager).Execute(ctx, res.AccessToken))
	ttl, ok := revoker.tokens[res.AccessToken]
	require.True(t, ok)
	assert.InDelta(t, (15 * time.Minute).Seconds(), ttl.Seconds(), 5)

	err = NewLogoutUseCase(revoker, manager).Execute(ctx, "garbage")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

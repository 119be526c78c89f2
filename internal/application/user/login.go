package user

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/storefront/internal/domain/user"
	"github.com/xiebiao/storefront/pkg/jwt"
	"github.com/xiebiao/storefront/pkg/logger"
)

// TokenRevoker 已注销Token存储(redis.TokenBlacklist实现)
type TokenRevoker interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
}

// LoginUseCase 用户登录用例
type LoginUseCase struct {
	userService user.Service
	jwtManager  *jwt.Manager
}

// NewLoginUseCase 创建登录用例
func NewLoginUseCase(userService user.Service, jwtManager *jwt.Manager) *LoginUseCase {
	return &LoginUseCase{
		userService: userService,
		jwtManager:  jwtManager,
	}
}

// Execute 校验邮箱密码并签发Token对，角色写入claims
func (uc *LoginUseCase) Execute(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	u, err := uc.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	pair, err := uc.jwtManager.GenerateToken(jwt.Identity{
		UserID:   u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Role:     string(u.Role),
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).Info("用户登录", zap.Uint("user_id", u.ID), zap.String("role", string(u.Role)))
	return &LoginResponse{
		User:         *toUserInfo(u),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	}, nil
}

// LogoutUseCase 用户登出用例
// Access Token加入黑名单直到自然过期
type LogoutUseCase struct {
	revoker    TokenRevoker
	jwtManager *jwt.Manager
	now        func() time.Time
}

// NewLogoutUseCase 创建登出用例
func NewLogoutUseCase(revoker TokenRevoker, jwtManager *jwt.Manager) *LogoutUseCase {
	return &LogoutUseCase{revoker: revoker, jwtManager: jwtManager, now: time.Now}
}

// Execute 注销Token
func (uc *LogoutUseCase) Execute(ctx context.Context, accessToken string) error {
	claims, err := uc.jwtManager.ParseToken(accessToken)
	if err != nil {
		return err
	}
	ttl := uc.jwtManager.AccessTokenTTL()
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(uc.now())
	}
	return uc.revoker.Revoke(ctx, accessToken, ttl)
}

// RefreshTokenUseCase 刷新Access Token
type RefreshTokenUseCase struct {
	jwtManager *jwt.Manager
}

// NewRefreshTokenUseCase 创建刷新用例
func NewRefreshTokenUseCase(jwtManager *jwt.Manager) *RefreshTokenUseCase {
	return &RefreshTokenUseCase{jwtManager: jwtManager}
}

// Execute 用Refresh Token换取新的Access Token
func (uc *RefreshTokenUseCase) Execute(_ context.Context, refreshToken string) (*RefreshResponse, error) {
	token, err := uc.jwtManager.RefreshAccessToken(refreshToken)
	if err != nil {
		return nil, err
	}
	return &RefreshResponse{
		AccessToken: token,
		ExpiresIn:   int64(uc.jwtManager.AccessTokenTTL().Seconds()),
	}, nil
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string
	Password string
}

// LoginResponse 登录响应
type LoginResponse struct {
	User         UserInfo `json:"user"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"` // Access Token过期时间(秒)
}

// RefreshResponse 刷新响应
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

package user

import (
	"context"
	"strings"

	"github.com/xiebiao/storefront/internal/domain/user"
)

// RegisterUseCase 用户注册用例
// 邮箱在auth.admin_emails中时授予admin角色，其余为customer
type RegisterUseCase struct {
	userService user.Service
	adminEmails map[string]struct{}
}

// AdminEmails 管理员邮箱列表(来自配置)
type AdminEmails []string

// NewRegisterUseCase 创建注册用例
func NewRegisterUseCase(userService user.Service, admins AdminEmails) *RegisterUseCase {
	set := make(map[string]struct{}, len(admins))
	for _, e := range admins {
		set[normalizeEmail(e)] = struct{}{}
	}
	return &RegisterUseCase{
		userService: userService,
		adminEmails: set,
	}
}

// Execute 执行注册
func (uc *RegisterUseCase) Execute(ctx context.Context, req RegisterRequest) (*UserInfo, error) {
	role := user.RoleCustomer
	if _, ok := uc.adminEmails[normalizeEmail(req.Email)]; ok {
		role = user.RoleAdmin
	}

	u, err := uc.userService.Register(ctx, strings.TrimSpace(req.Email), req.Password, req.Nickname, role)
	if err != nil {
		return nil, err
	}
	return toUserInfo(u), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string
	Password string
	Nickname string
}

// UserInfo 用户信息(不含密码)
type UserInfo struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Role     string `json:"role"`
}

func toUserInfo(u *user.User) *UserInfo {
	return &UserInfo{
		ID:       u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Role:     string(u.Role),
	}
}

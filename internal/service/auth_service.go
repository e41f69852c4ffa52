package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/user/dreadscale/internal/model"
	"github.com/user/dreadscale/internal/repository"
)

// AvatarColors 头像背景色
var AvatarColors = []string{"#6366f1", "#8b5cf6", "#ec4899", "#ef4444", "#f59e0b", "#10b981", "#06b6d4", "#3b82f6"}

// MinPasswordLength 最短密码长度
const MinPasswordLength = 6

// RegisterInput 注册信息
type RegisterInput struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required,max=64"`
	LastName        string `json:"last_name" binding:"required,max=64"`
	DateOfBirth     string `json:"date_of_birth"`
	Phone           string `json:"phone" binding:"max=32"`
	Bio             string `json:"bio" binding:"max=500"`
}

// ProfileInput 资料更新，nil 字段不修改
type ProfileInput struct {
	FirstName   *string `json:"first_name" binding:"omitempty,max=64"`
	LastName    *string `json:"last_name" binding:"omitempty,max=64"`
	DateOfBirth *string `json:"date_of_birth"`
	Phone       *string `json:"phone" binding:"omitempty,max=32"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`

	// 修改密码时两者都要提供
	CurrentPassword *string `json:"current_password"`
	NewPassword     *string `json:"new_password"`
}

// AuthService 账户服务
type AuthService struct {
	users *repository.UserRepository
	now   func() time.Time
}

func NewAuthService(users *repository.UserRepository) *AuthService {
	return &AuthService{users: users, now: time.Now}
}

// AvatarInitials 名和姓的首字母（大写）
func AvatarInitials(firstName, lastName string) string {
	var b strings.Builder
	for _, name := range []string{firstName, lastName} {
		r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
		if r != utf8.RuneError {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// AvatarColor 按邮箱固定选取头像颜色
func AvatarColor(email string) string {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(email)))
	return AvatarColors[h.Sum32()%uint32(len(AvatarColors))]
}

func parseDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return &t, nil
}

// Register 注册新用户（密码校验在任何写入之前）
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	dob, err := parseDate(in.DateOfBirth)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	existing, err := s.users.FindByEmail(in.Email)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	user := &model.User{
		Email:          in.Email,
		FirstName:      strings.TrimSpace(in.FirstName),
		LastName:       strings.TrimSpace(in.LastName),
		DateOfBirth:    dob,
		Phone:          strings.TrimSpace(in.Phone),
		Bio:            strings.TrimSpace(in.Bio),
		AvatarInitials: AvatarInitials(in.FirstName, in.LastName),
		AvatarColor:    AvatarColor(in.Email),
	}
	if err := s.users.Create(user, in.Password); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}
	return user, nil
}

// Login 校验邮箱密码并记录登录时间
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	user, err := s.users.FindByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil || !s.users.CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	if err := s.users.TouchLastLogin(user.ID, now); err != nil {
		return nil, fmt.Errorf("更新登录时间失败: %w", err)
	}
	user.LastLogin = &now
	return user, nil
}

// Me 当前用户，不存在时返回 ErrNotLoggedIn
func (s *AuthService) Me(userID string) (*model.User, error) {
	if userID == "" {
		return nil, ErrNotLoggedIn
	}
	user, err := s.users.FindByID(userID)
	if err != nil {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	if user == nil {
		return nil, ErrNotLoggedIn
	}
	return user, nil
}

// UpdateProfile 更新个人资料，姓名变化时同步更新头像首字母
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*model.User, error) {
	user, err := s.Me(userID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.checkPasswordChange(user, in); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
		fields["first_name"] = user.FirstName
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
		fields["last_name"] = user.LastName
	}
	if in.FirstName != nil || in.LastName != nil {
		user.AvatarInitials = AvatarInitials(user.FirstName, user.LastName)
		fields["avatar_initials"] = user.AvatarInitials
	}
	if in.DateOfBirth != nil {
		dob, err := parseDate(*in.DateOfBirth)
		if err != nil {
			return nil, err
		}
		user.DateOfBirth = dob
		fields["date_of_birth"] = dob
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
		fields["phone"] = user.Phone
	}
	if in.Bio != nil {
		user.Bio = strings.TrimSpace(*in.Bio)
		fields["bio"] = user.Bio
	}

	if err := s.users.UpdateProfile(userID, fields); err != nil {
		return nil, fmt.Errorf("更新资料失败: %w", err)
	}
	if in.NewPassword != nil {
		if err := s.users.UpdatePassword(userID, *in.NewPassword); err != nil {
			return nil, fmt.Errorf("更新密码失败: %w", err)
		}
	}
	return user, nil
}

// checkPasswordChange 新密码需满足长度要求并提供正确的当前密码
func (s *AuthService) checkPasswordChange(user *model.User, in ProfileInput) error {
	if in.NewPassword == nil {
		return nil
	}
	if len(*in.NewPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if in.CurrentPassword == nil || !s.users.CheckPassword(user, *in.CurrentPassword) {
		return ErrInvalidCredentials
	}
	return nil
}

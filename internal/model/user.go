package model

import (
	"time"
)

// User 用户模型
type User struct {
	ID             string     `json:"id" db:"id" gorm:"primaryKey;type:varchar(36)"`
	Email          string     `json:"email" db:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	FirstName      string     `json:"first_name" db:"first_name"`
	LastName       string     `json:"last_name" db:"last_name"`
	DateOfBirth    *time.Time `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Phone          string     `json:"phone" db:"phone"`
	Bio            string     `json:"bio" db:"bio"`
	AvatarColor    string     `json:"avatar_color" db:"avatar_color"`
	AvatarInitials string     `json:"avatar_initials" db:"avatar_initials"`
	Role           string     `json:"role" db:"role"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	LastLogin      *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// DisplayName 聊天等场景展示用的名字
func (u *User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

// SessionUser 专门用于 Session 存储的用户信息快照
type SessionUser struct {
	ID             string
	Email          string
	FirstName      string
	LastName       string
	AvatarColor    string
	AvatarInitials string
	Role           string
}

// NewSessionUser 根据用户生成 Session 快照
func NewSessionUser(u *User) SessionUser {
	return SessionUser{
		ID:             u.ID,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		AvatarColor:    u.AvatarColor,
		AvatarInitials: u.AvatarInitials,
		Role:           u.Role,
	}
}

package entity

import "time"

// User 用户
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// AuthSession 登录/注册返回的会话
type AuthSession struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

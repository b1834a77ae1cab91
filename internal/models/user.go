package models

import "time"

type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	DisplayName  string    `json:"display_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SessionMarker — то, что клиент хранит у себя после логина. Не является
// учётными данными: роль всегда перепроверяется на сервере.
type SessionMarker struct {
	UID         int    `json:"u_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

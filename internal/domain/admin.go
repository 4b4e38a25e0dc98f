package domain

import "time"

// AdminIdentity — проверенный оператор, резолвится на каждый запрос
// из сессионной куки. Живёт ровно один запрос, нигде не персистится.
type AdminIdentity struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Admin — строка allow-list'а администраторов в Postgres.
type Admin struct {
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Никогда не отдаём наружу
	CreatedAt    time.Time `json:"created_at"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse возвращается после успешного логина; сам токен
// уходит только в HttpOnly куку.
type SessionResponse struct {
	Admin     AdminIdentity `json:"admin"`
	ExpiresIn int64         `json:"expires_in"`
}

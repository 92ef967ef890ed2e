// internal/domain/auth/dto.go
package auth

// LoginRequest for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse successful login response
type LoginResponse struct {
	Token string     `json:"token"`
	User  UserRecord `json:"user"`
}

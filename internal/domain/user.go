package domain

type User struct {
	ID                    int64      `json:"id"`
	Email                 string     `json:"email"`
	FullName              string     `json:"full_name"`
	IsActive              bool       `json:"is_active"`
	IsPro                 bool       `json:"is_pro"`
	SubscriptionStatus    string     `json:"subscription_status,omitempty"`
	SubscriptionExpiresAt *Timestamp `json:"subscription_expires_at,omitempty"`
	CreatedAt             Timestamp  `json:"created_at"`
}

// DisplayName prefers the full name over the email
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// AuthToken is the body of a successful login
type AuthToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest is the body of POST /v1/auth/register
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// EmailVerification is returned by GET /v1/auth/verify-email
type EmailVerification struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

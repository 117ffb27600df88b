package models

type RefreshOpts struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshData struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *RefreshData `json:"data"`
}

// TokenClaims mirrors the claims the academy backend puts in its access
// tokens. Older tokens carry the user id as "userId", newer ones as "id".
type TokenClaims struct {
	ID      string `mapstructure:"id"`
	UserID  string `mapstructure:"userId"`
	Subject string `mapstructure:"sub"`
	Email   string `mapstructure:"email"`
	Role    string `mapstructure:"role"`
}

func (c *TokenClaims) User() InfoUser {
	id := c.ID
	if id == "" {
		id = c.UserID
	}
	if id == "" {
		id = c.Subject
	}
	return InfoUser{
		ID:      id,
		Email:   c.Email,
		Role:    c.Role,
		IsAdmin: c.Role == RoleAdmin,
	}
}

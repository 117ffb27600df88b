package models

// InfoUser is what the client knows about the signed-in user, read from the
// unverified claims of the stored access token.
type InfoUser struct {
	ID      string
	Email   string
	Role    string
	IsAdmin bool
}

const RoleAdmin = "ADMIN"

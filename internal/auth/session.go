package auth

// SessionData is the verified identity attached to a guarded request
type SessionData struct {
	UserID     string `json:"user_id"`
	Email      string `json:"email"`
	AuthMethod string `json:"auth_method"` // "bearer", "cookie"
}

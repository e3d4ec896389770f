package apiclient

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// CredentialsRequest is the body of signup and login
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserData identifies an account
type UserData struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

// SignupResponse represents the signup response. The account id arrives
// either under user_data or at the top level.
type SignupResponse struct {
	Message  string   `json:"message"`
	UserData UserData `json:"user_data"`
	UserID   string   `json:"user_id,omitempty"`
	Email    string   `json:"email,omitempty"`
	// AuthToken is taken from the body when present, else from the backend cookie.
	AuthToken string `json:"auth_token,omitempty"`
}

// User returns the created account, preferring user_data over top-level fields
func (r *SignupResponse) User() UserData {
	u := r.UserData
	if u.UserID == "" {
		u.UserID = r.UserID
	}
	if u.Email == "" {
		u.Email = r.Email
	}
	return u
}

// LoginResponse represents the login response
type LoginResponse struct {
	Email     string `json:"email"`
	UserID    string `json:"user_id"`
	AuthToken string `json:"auth_token"`
}

// VerifyResponse represents the identity returned by the verification endpoint
type VerifyResponse struct {
	Email  string `json:"email"`
	UserID string `json:"user_id"`
}

// FlexibleID accepts a JSON string or number
type FlexibleID string

func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*id = FlexibleID(text)
		return nil
	}

	var number json.Number
	if err := json.Unmarshal(data, &number); err != nil {
		return fmt.Errorf("user id must be a string or a number: %w", err)
	}
	*id = FlexibleID(number.String())
	return nil
}

// GitHubUserData carries the user id under either spelling
type GitHubUserData struct {
	UserID    FlexibleID `json:"user_id"`
	UserIDAlt FlexibleID `json:"userId"`
}

// GitHubTokenResponse represents the response of the code exchange
type GitHubTokenResponse struct {
	Message   string          `json:"message"`
	UserData  *GitHubUserData `json:"user_data"`
	AuthToken string          `json:"auth_token,omitempty"`
}

// UserID returns user_data.user_id, falling back to user_data.userId
func (r *GitHubTokenResponse) UserID() string {
	if r == nil || r.UserData == nil {
		return ""
	}
	if r.UserData.UserID != "" {
		return string(r.UserData.UserID)
	}
	return string(r.UserData.UserIDAlt)
}

// FileUpload is an optional file part of a multipart form
type FileUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// ProfileForm is the profile-completion form
type ProfileForm struct {
	FirstName   string `form:"first_name" validate:"required,max=100"`
	LastName    string `form:"last_name" validate:"required,max=100"`
	Bio         string `form:"bio" validate:"max=2000"`
	LinkedInURL string `form:"linkedin_url" validate:"omitempty,url"`
	College     string `form:"college" validate:"max=200"`
	City        string `form:"city" validate:"max=100"`
	Country     string `form:"country" validate:"max=100"`

	Picture *FileUpload `form:"-" validate:"-"`
}

// Fields returns the text fields in wire order
func (f ProfileForm) Fields() [][2]string {
	return [][2]string{
		{"first_name", f.FirstName},
		{"last_name", f.LastName},
		{"bio", f.Bio},
		{"linkedin_url", f.LinkedInURL},
		{"college", f.College},
		{"city", f.City},
		{"country", f.Country},
	}
}

// Trim removes surrounding whitespace from every text field
func (f *ProfileForm) Trim() {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Bio = strings.TrimSpace(f.Bio)
	f.LinkedInURL = strings.TrimSpace(f.LinkedInURL)
	f.College = strings.TrimSpace(f.College)
	f.City = strings.TrimSpace(f.City)
	f.Country = strings.TrimSpace(f.Country)
}

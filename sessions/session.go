package sessions

import (
	"encoding/json"
	"strconv"
)

// Session is the authenticated state of the client: the bearer token issued by
// the backend and the user it belongs to. User is nil until the token has been
// validated or exchanged.
type Session struct {
	Token string
	User  *User
}

// User is the GitHub account behind a session.
type User struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Login     string `json:"login,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Email     string `json:"email,omitempty"`
}

// DisplayName prefers the user's name and falls back to the login.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Login
}

// UnmarshalJSON accepts numeric GitHub IDs and both avatar spellings the
// backend has used.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          json.RawMessage `json:"id"`
		Name        string          `json:"name"`
		Login       string          `json:"login"`
		AvatarURL   string          `json:"avatar_url"`
		AvatarCamel string          `json:"avatarUrl"`
		Email       string          `json:"email"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, err := decodeID(raw.ID)
	if err != nil {
		return err
	}

	u.ID = id
	u.Name = raw.Name
	u.Login = raw.Login
	u.AvatarURL = raw.AvatarURL
	if u.AvatarURL == "" {
		u.AvatarURL = raw.AvatarCamel
	}
	u.Email = raw.Email
	return nil
}

func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10), nil
	}
	return n.String(), nil
}

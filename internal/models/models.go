package models

import (
	"encoding/json"
	"strconv"
)

// User is an authenticated CineAI account.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// UnmarshalJSON accepts numeric or string ids.
func (u *User) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Username string          `json:"username"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	u.Username = raw.Username
	u.ID = rawID(raw.ID)
	return nil
}

func rawID(b json.RawMessage) string {
	if len(b) == 0 || string(b) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		return n.String()
	}
	return string(b)
}

// UserEnvelope normalizes the two shapes /me is known to answer with: {"user": {...}} and a bare user.
type UserEnvelope struct {
	User User
}

func (e *UserEnvelope) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return err
	}
	if wrapped.User != nil {
		e.User = *wrapped.User
		return nil
	}
	return json.Unmarshal(data, &e.User)
}

// AuthResponse is the body of /signup and /login.
type AuthResponse struct {
	Message     string `json:"message,omitempty"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	User        *User  `json:"user,omitempty"`
}

// Credentials are posted to /signup (JSON) and /login (form-encoded).
type Credentials struct {
	Username string `json:"username" validate:"required" msg:"Please enter a username."`
	Password string `json:"password" validate:"required" msg:"Please enter a password."`
}

// MessageResponse is the generic {message} or {msg} acknowledgement.
type MessageResponse struct {
	Message string `json:"message,omitempty"`
	Msg     string `json:"msg,omitempty"`
}

// Text returns whichever of the message fields the server filled in.
func (m MessageResponse) Text() string {
	if m.Message != "" {
		return m.Message
	}
	return m.Msg
}

// Percent formats a 0..1 score as a whole percentage ("0.873" -> "87%").
func Percent(score float64) string {
	if score < 0 {
		score = 0
	}
	return strconv.Itoa(int(score*100+0.5)) + "%"
}

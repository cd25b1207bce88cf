// Package api holds the JSON bodies exchanged with the memo server.
package api

// MemoRequest is the body of create and update memo requests
type MemoRequest struct {
	Title string `json:"title"`
	Memo  string `json:"memo"`
}

// CredentialsRequest is the body of signup and login requests
type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse is returned by signup and login
type TokenResponse struct {
	Token    string `json:"token"`
	Username string `json:"username,omitempty"`
}

// ErrorResponse is the error body returned by the server. Some endpoints
// report through "detail" instead of "error".
type ErrorResponse struct {
	Error  string `json:"error,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// Message returns the first non-empty message in the body
func (e ErrorResponse) Message() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Detail
}

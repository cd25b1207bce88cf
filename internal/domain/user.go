package domain

// User is the identity shown to the rest of the client. The auth token is
// stored separately and never carried on this type.
type User struct {
	Username string `json:"username"`
}

// Credentials are what a user types into the login and signup forms.
type Credentials struct {
	Username string `json:"username" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

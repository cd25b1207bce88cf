package gateway

import (
	"context"
	"net/http"

	"mymemo-client/internal/domain"
	"mymemo-client/pkg/api"
)

// Signup registers a new user and returns the issued token.
func (g *Gateway) Signup(ctx context.Context, creds domain.Credentials) (api.TokenResponse, error) {
	return g.authenticate(ctx, "/users/signup/", "users/signup/", creds)
}

// Login exchanges a username and password for a token.
func (g *Gateway) Login(ctx context.Context, creds domain.Credentials) (api.TokenResponse, error) {
	return g.authenticate(ctx, "/users/login/", "users/login/", creds)
}

func (g *Gateway) authenticate(ctx context.Context, route, path string, creds domain.Credentials) (api.TokenResponse, error) {
	var out api.TokenResponse
	err := g.do(ctx, request{
		method: http.MethodPost,
		route:  route,
		path:   path,
		body:   api.CredentialsRequest{Username: creds.Username, Password: creds.Password},
	}, &out)
	return out, err
}

// Logout revokes the stored token on the server.
func (g *Gateway) Logout(ctx context.Context) error {
	return g.do(ctx, request{method: http.MethodPost, route: "/users/logout/", path: "users/logout/", auth: true}, nil)
}

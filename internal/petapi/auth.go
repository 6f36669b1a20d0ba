package petapi

import (
	"context"
	"net/http"

	"wanparadise/pkg/domain"
)

// Login authenticates against the remote API and returns the user record.
func (c *Client) Login(ctx context.Context, email, password string) (domain.User, error) {
	payload := map[string]string{"email": email, "password": password}
	var user domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", requestOptions{}, payload, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	payload := map[string]string{"name": name, "email": email, "password": password}
	var user domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", requestOptions{}, payload, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Me returns the profile of the identified user.
func (c *Client) Me(ctx context.Context, userID int) (domain.User, error) {
	var user domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", requestOptions{userID: userID}, nil, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdateProfile updates name, email and optionally the password.
func (c *Client) UpdateProfile(ctx context.Context, userID int, name, email, password string) (domain.User, error) {
	payload := map[string]string{"name": name, "email": email}
	if password != "" {
		payload["password"] = password
	}
	var user domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/profile", requestOptions{userID: userID}, payload, &user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

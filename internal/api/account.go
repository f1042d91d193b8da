package api

import (
	"context"

	"staybook/internal/models"
)

type authResponse struct {
	Token string  `json:"token"`
	User  userDTO `json:"user"`
}

// Login returns the bearer token. Persisting it is up to the caller.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	var resp authResponse
	if err := c.doPost(ctx, "login", "/auth/login", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) Register(ctx context.Context, name, email, phone, password string) (string, error) {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"phone":    phone,
		"password": password,
	}
	var resp authResponse
	if err := c.doPost(ctx, "register", "/auth/register", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var dto userDTO
	if err := c.doGet(ctx, "profile", "/auth/profile", &dto); err != nil {
		return nil, err
	}
	u := dto.toModel()
	return &u, nil
}

package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"stockpile/internal/domain/models"
	"stockpile/internal/transport/client/dto"
)

// Login exchanges credentials for a token pair and stores it. The call is
// unauthenticated; no refresh logic applies.
func (c *Client) Login(ctx context.Context, email, password string) (models.TokenPair, error) {
	const op = "client.Login"

	req := dto.LoginRequest{Email: email, Password: password}
	if err := dto.Validate(req); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	var pair models.TokenPair
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, req, &pair); err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: %w", op, err)
	}

	c.store.SetTokens(pair.AccessToken, pair.RefreshToken, pair.TokenType)
	c.log.Info("user logged in", slog.String("op", op), slog.String("email", email))

	return pair, nil
}

// Register creates a new account. It does not authenticate the session;
// the caller logs in afterwards.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (models.Account, error) {
	const op = "client.Register"

	if err := dto.Validate(req); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	var account models.Account
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, req, &account); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	c.log.Info("account registered", slog.String("op", op), slog.String("email", account.Email))

	return account, nil
}

// Logout clears the session locally. The backend keeps no server-side
// session to invalidate.
func (c *Client) Logout() {
	const op = "client.Logout"

	c.store.Clear()
	c.log.Info("user logged out", slog.String("op", op))
}

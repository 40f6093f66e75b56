package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"stockpile/internal/domain/models"
	"stockpile/internal/transport/client/dto"
)

// CurrentUser fetches the session user.
func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	const op = "client.CurrentUser"

	var user models.User
	if err := c.do(ctx, http.MethodGet, "/user/user", nil, nil, &user); err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// UpdateProfile partially updates profile fields; zero-value fields are
// omitted from the payload. At least one field must be set.
func (c *Client) UpdateProfile(ctx context.Context, req dto.ProfileUpdateRequest) error {
	const op = "client.UpdateProfile"

	if req.IsZero() {
		return fmt.Errorf("%s: %w", op, errors.New("no changes provided"))
	}

	if err := dto.Validate(req); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := c.do(ctx, http.MethodPatch, "/user/update-user", nil, req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ChangeEmail updates the account email. The trailing slash matches the
// backend route exactly.
func (c *Client) ChangeEmail(ctx context.Context, email string) (models.Account, error) {
	const op = "client.ChangeEmail"

	req := dto.ChangeEmailRequest{Email: email}
	if err := dto.Validate(req); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	var account models.Account
	if err := c.do(ctx, http.MethodPut, "/user/change-email/", nil, req, &account); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

// ChangePassword rotates the account password given the current one.
func (c *Client) ChangePassword(ctx context.Context, req dto.ChangePasswordRequest) (models.Account, error) {
	const op = "client.ChangePassword"

	if err := dto.Validate(req); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	var account models.Account
	if err := c.do(ctx, http.MethodPut, "/user/change-password", nil, req, &account); err != nil {
		return models.Account{}, fmt.Errorf("%s: %w", op, err)
	}

	return account, nil
}

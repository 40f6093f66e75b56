package models

// User is the current session user as returned by GET /user/user.
// Username and Avatar may be empty for accounts without a profile.
type User struct {
	Email     string `json:"email"`
	Username  string `json:"username,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	LastLogin string `json:"last_login"`
}

// Account is the account shape returned by register and the
// change-email/change-password endpoints.
type Account struct {
	Email     string `json:"email"`
	PlanCode  string `json:"plan_code"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

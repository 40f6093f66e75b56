package dto

// Request payloads for the backend REST API. Validation tags mirror the
// backend's own rules so obviously bad payloads never leave the process.

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	PlanCode string `json:"plan_code" validate:"required,oneof=free"`
	Password string `json:"password" validate:"required,min=6"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type ProfileUpdateRequest struct {
	Username    string `json:"username,omitempty" validate:"omitempty,min=1"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
	Address     string `json:"address,omitempty"`
	Country     string `json:"country,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

func (r ProfileUpdateRequest) IsZero() bool {
	return r == ProfileUpdateRequest{}
}

type ChangeEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ChangePasswordRequest struct {
	Password    string `json:"password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type AddProductRequest struct {
	Name           string  `json:"name" validate:"required,min=1"`
	Description    string  `json:"description,omitempty"`
	AvailableStock int     `json:"available_stock" validate:"gte=0"`
	Price          float64 `json:"price" validate:"gte=0"`
	Cost           float64 `json:"cost,omitempty" validate:"gte=0"`
	Platform       string  `json:"platform,omitempty"`
	ImgURL         string  `json:"img_url,omitempty" validate:"omitempty,url"`
}

// UpdateProductRequest is a partial update; nil fields are omitted from
// the payload. At least one field must be set.
type UpdateProductRequest struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,min=1"`
	Description    *string  `json:"description,omitempty"`
	AvailableStock *int     `json:"available_stock,omitempty" validate:"omitempty,gte=0"`
	Price          *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Cost           *float64 `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Platform       *string  `json:"platform,omitempty"`
	ImgURL         *string  `json:"img_url,omitempty" validate:"omitempty,url"`
}

func (r UpdateProductRequest) IsZero() bool {
	return r.Name == nil && r.Description == nil && r.AvailableStock == nil &&
		r.Price == nil && r.Cost == nil && r.Platform == nil && r.ImgURL == nil
}

package dto

type LoginRequest struct {
	Username       string `json:"username"        validate:"required"`
	Password       string `json:"password"        validate:"required"`
	RegisterNumber int    `json:"register_number" validate:"required,min=1"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// SupervisorAuthRequest re-authenticates a supervisor for a gated action.
type SupervisorAuthRequest struct {
	Code     string `json:"code"     validate:"required"`
	Password string `json:"password" validate:"required"`
	Action   string `json:"action"   validate:"required"`
}

type SupervisorAuthResponse struct {
	Authorized bool   `json:"authorized"`
	Role       string `json:"role,omitempty"`
}

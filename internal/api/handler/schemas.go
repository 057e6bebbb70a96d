package handler

// Form payloads. Each carries form tags for browser posts and json tags for
// API clients; validate tags are checked before any collaborator call.

type loginForm struct {
	Email    string `form:"email"    json:"email"    validate:"required,email"`
	Password string `form:"password" json:"password" validate:"required"`
	Next     string `form:"next"     json:"next"`
}

type profileForm struct {
	Username string `form:"username"    json:"username"    validate:"required,max=64"`
	Email    string `form:"email"       json:"email"       validate:"required,email"`
	Phone    string `form:"phonenumber" json:"phonenumber" validate:"omitempty,max=32"`
	Address  string `form:"address"     json:"address"     validate:"omitempty,max=256"`
}

type applyForm struct {
	TemplateID string `form:"templateId" json:"templateId" validate:"required"`
	LicenceNo  string `form:"licenceNo"  json:"licenceNo"  validate:"required,max=32"`
	Vehicle    string `form:"vehicle"    json:"vehicle"    validate:"required,max=64"`
}

type claimForm struct {
	PolicyID        string  `form:"policyId"        json:"policyId"        validate:"required"`
	RequestedAmount float64 `form:"requestedAmount" json:"requestedAmount" validate:"required,gt=0"`
	Description     string  `form:"description"     json:"description"     validate:"required,max=2000"`
}

type decisionForm struct {
	Status string `form:"status" json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Note   string `form:"note"   json:"note"   validate:"omitempty,max=500"`
}

type claimQueryParams struct {
	Status string `query:"status"`
	Search string `query:"q"`
	Sort   string `query:"sort"`
	Desc   bool   `query:"desc"`
}

// sessionResponse is the body of GET /api/session.
type sessionResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phonenumber,omitempty"`
	ExpiresAt string `json:"expires_at"`
	Dashboard string `json:"dashboard"`
}

// errorResponse is the standard error envelope returned on JSON errors.
type errorResponse struct {
	Error string `json:"error"`
}

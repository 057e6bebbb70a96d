package domain

// LoginGrant is what the auth service returns for a successful credential
// exchange.
type LoginGrant struct {
	Token    string `json:"token"`
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Phone    string `json:"phonenumber"`
	Email    string `json:"email,omitempty"`
}

// Profile is a user record as exposed by the auth service.
type Profile struct {
	ID       ID     `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phonenumber"`
	Address  string `json:"address,omitempty"`
	Role     string `json:"role,omitempty"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phonenumber"`
	Address  string `json:"address"`
}

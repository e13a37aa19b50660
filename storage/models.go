package storage

// Member represents the authenticated user record returned by the backend
// at login and persisted under KeyUserInfo.
type Member struct {
	// PK is the internal primary key of the member row.
	PK int `json:"pk"`
	// ID is the public member identifier.
	ID int `json:"id"`
	// Name is the member's display name.
	Name string `json:"name"`
	// Email is the member's login email.
	Email string `json:"email"`
	// Provider is the OAuth provider name for social accounts ("", "kakao", ...).
	Provider string `json:"provider,omitempty"`
	// Role is the member's authorization role.
	Role string `json:"role,omitempty"`
}

package domain

// User is the persisted user document (users/<id>/user.json).
type User struct {
	ID            UserID   `json:"id"`
	Name          string   `json:"name"`
	Signature     string   `json:"signature,omitempty"`
	AvatarSrc     string   `json:"avatarSrc"`
	ProfileBkgSrc string   `json:"profileBkgSrc"`
	Friends       []UserID `json:"friends"`
	Trips         []TripID `json:"trips"`
}

// Credentials is the persisted credential document (users/<id>/authen.json).
// Password holds a password hash, never the plain text.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// EmailIndex maps a normalized email to the owning user (users/users.json).
type EmailIndex map[string]UserID

// Counter is the global ordinal document (data-counter.json).
type Counter struct {
	UserNb int `json:"userNb"`
	TripNb int `json:"tripNb"`
}

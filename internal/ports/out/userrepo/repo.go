package userrepo

import (
	"context"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

// NewUser is the input to Create. Email is expected normalized and PasswordHash already hashed.
type NewUser struct {
	Name          string
	Email         string
	PasswordHash  string
	Signature     string
	AvatarSrc     string
	ProfileBkgSrc string
}

// Repository provides access to persisted users.
type Repository interface {
	// Create allocates the next user id and writes the user directory, user and credential
	// documents, and the email index entry. ErrDuplicateEmail when the email is indexed.
	Create(ctx context.Context, in NewUser) (domain.User, error)

	Get(ctx context.Context, id domain.UserID) (domain.User, error)

	// GetCredentials returns nil when the email is not indexed.
	GetCredentials(ctx context.Context, email string) (*domain.Credentials, domain.UserID, error)

	Count(ctx context.Context) (int, error)
}

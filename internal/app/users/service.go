package users

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Overland-East-Bay/trip-journal-api/internal/app/aggregate"
	"github.com/Overland-East-Bay/trip-journal-api/internal/app/apperr"
	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
	"github.com/Overland-East-Bay/trip-journal-api/internal/ports/out/userrepo"
)

// PasswordHasher hashes and checks credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// Defaults are the relative image sources given to users created without their own.
type Defaults struct {
	AvatarSrc     string
	ProfileBkgSrc string
}

type Service struct {
	repo     userrepo.Repository
	views    *aggregate.Aggregator
	hasher   PasswordHasher
	defaults Defaults
}

func NewService(repo userrepo.Repository, views *aggregate.Aggregator, hasher PasswordHasher, defaults Defaults) *Service {
	return &Service{repo: repo, views: views, hasher: hasher, defaults: defaults}
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, apperr.FromStorage(err, "counter not found")
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, id domain.UserID) (domain.FullUser, error) {
	return s.views.FullUser(ctx, id)
}

// Login returns the reduced view of the user owning email when password matches.
// Unknown emails and wrong passwords fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (domain.ReducedUser, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.ReducedUser{}, apperr.Invalid("credentials", "email and password are required")
	}

	creds, id, err := s.repo.GetCredentials(ctx, email)
	if err != nil {
		return domain.ReducedUser{}, apperr.FromStorage(err, "user not found")
	}
	if creds == nil || !s.hasher.Verify(creds.Password, password) {
		log.Info().Str("email", email).Msg("login rejected")
		return domain.ReducedUser{}, apperr.New(apperr.BadCredentials, "invalid email or password")
	}
	return s.views.ReducedUser(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateUserInput) (domain.FullUser, error) {
	name := domain.NormalizeHumanName(in.Name)
	if name == "" {
		return domain.FullUser{}, apperr.Invalid("name", "must be non-empty")
	}
	email := domain.NormalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return domain.FullUser{}, apperr.Invalid("email", err.Error())
	}
	if in.Password == "" {
		return domain.FullUser{}, apperr.Invalid("password", "must be non-empty")
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return domain.FullUser{}, apperr.Invalid("password", "cannot be hashed")
	}

	u, err := s.repo.Create(ctx, userrepo.NewUser{
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		Signature:     strings.TrimSpace(in.Signature),
		AvatarSrc:     s.defaults.AvatarSrc,
		ProfileBkgSrc: s.defaults.ProfileBkgSrc,
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrDuplicateEmail) {
			return domain.FullUser{}, &apperr.Error{
				Kind:    apperr.DuplicateEmail,
				Message: "email already registered",
				Details: map[string]any{"email": email},
			}
		}
		return domain.FullUser{}, apperr.FromStorage(err, "user storage missing")
	}

	log.Info().Str("user_id", string(u.ID)).Msg("user created")
	return s.views.FullUser(ctx, u.ID)
}

func validateEmail(email string) error {
	if email == "" {
		return errors.New("must be non-empty")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return err
	}
	// Ensure no "Name <email@x>" format sneaks in.
	if addr.Address != email {
		return errors.New("must be a bare email address")
	}
	return nil
}

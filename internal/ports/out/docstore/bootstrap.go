package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/Overland-East-Bay/trip-journal-api/internal/domain"
)

// Bootstrap seeds the fixed top-level layout when absent: the counter document,
// the users and trips directories, and an empty email index. Existing content is left as is.
func Bootstrap(ctx context.Context, s Store) error {
	for _, dir := range []string{UsersDir, TripsDir} {
		if err := s.Mkdir(ctx, dir); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("bootstrap %s: %w", dir, err)
		}
	}
	if err := seed(ctx, s, CounterPath, domain.Counter{}); err != nil {
		return err
	}
	return seed(ctx, s, UsersIndexPath, domain.EmailIndex{})
}

func seed(ctx context.Context, s Store, p string, v any) error {
	_, err := s.Get(ctx, p)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		if err := Write(ctx, s, p, v); err != nil {
			return fmt.Errorf("bootstrap %s: %w", p, err)
		}
		return nil
	default:
		return fmt.Errorf("bootstrap %s: %w", p, err)
	}
}

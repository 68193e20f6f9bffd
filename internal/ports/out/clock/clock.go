package clock

import "time"

// Clock stamps ingested photos (placeholder date and time) and new comments.
type Clock interface {
	Now() time.Time
}

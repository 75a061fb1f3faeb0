package policies

import "context"

// LocationPort suggests place names for a free-text pickup location.
type LocationPort interface {
	Suggest(ctx context.Context, query string) ([]string, error)
}

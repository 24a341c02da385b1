package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/siteledger/internal/domain"
	"github.com/alexanderramin/siteledger/internal/repository"
)

const dateLayout = "2006-01-02"

// resolveProject finds a project by code or id.
func resolveProject(ctx context.Context, app *App, ref string) (*domain.Project, error) {
	if ref == "" {
		return nil, fmt.Errorf("project is required (code such as VILLA01, or id)")
	}
	return app.Projects.Resolve(ctx, ref)
}

// resolveBOQItemID accepts a #seq, a bare seq number or an item id.
func resolveBOQItemID(ctx context.Context, app *App, projectID, ref string) (string, error) {
	item, err := app.BOQ.Get(ctx, projectID, ref)
	if err != nil {
		return "", fmt.Errorf("BOQ item %s: %w", ref, err)
	}
	return item.ID, nil
}

func resolveTaskID(ctx context.Context, app *App, projectID, ref string) (string, error) {
	t, err := app.Tasks.Get(ctx, projectID, ref)
	if err != nil {
		return "", fmt.Errorf("task %s: %w", ref, err)
	}
	return t.ID, nil
}

// findRecord picks the record whose reference matches ref case-insensitively,
// or whose id equals or uniquely starts with ref.
func findRecord[T any](records []T, ref string, key func(T) (id, reference string)) (T, error) {
	var zero T
	for _, r := range records {
		id, reference := key(r)
		if id == ref || (reference != "" && strings.EqualFold(reference, ref)) {
			return r, nil
		}
	}

	var matches []T
	for _, r := range records {
		if id, _ := key(r); strings.HasPrefix(id, ref) {
			matches = append(matches, r)
		}
	}
	switch len(matches) {
	case 0:
		return zero, fmt.Errorf("%q: %w", ref, repository.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return zero, fmt.Errorf("id prefix %q is ambiguous (%d matches)", ref, len(matches))
	}
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q: use YYYY-MM-DD", flag, value)
	}
	return t, nil
}

// parseOptionalDate returns nil for an empty value.
func parseOptionalDate(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(flag, value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// dateOrToday parses value, defaulting to the app's current day.
func dateOrToday(app *App, flag, value string) (time.Time, error) {
	if value == "" {
		return app.now().UTC().Truncate(24 * time.Hour), nil
	}
	return parseDate(flag, value)
}

package pages

import (
	"context"

	"github.com/hnrobert/pagegate/internal/access"
)

// Guarded wraps h so that it refuses to run for an unauthenticated session
// and, for every page except Home, for a session whose cached permissions
// do not list pageID.
func Guarded(pageID string, h Handler) Handler {
	if h == nil {
		return nil
	}
	return HandlerFunc(func(ctx context.Context, req *Request) (*View, error) {
		if err := access.RequireAuthenticated(req.Session); err != nil {
			return nil, err
		}
		if pageID != HomePage {
			if err := access.RequirePermission(pageID, req.Session.Permissions()); err != nil {
				return nil, err
			}
		}
		return h.Main(ctx, req)
	})
}

package authorization

import "context"

type Service interface {
	// Authenticate maps an admin bearer token to its role.
	Authenticate(ctx context.Context, token string) (string, error)
	Authorize(ctx context.Context, role string, object string, action string) error
}

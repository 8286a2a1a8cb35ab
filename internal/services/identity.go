// Package services – identity resolution.
//
// The first pipeline stage turns an opaque caller token into a stored
// user. Two tiers are tried in order: a structured id (UUID) against the
// primary key, then an email address against the unique email index. An
// email that matches no row provisions a new user on the spot; a
// concurrent provision of the same address is resolved by re-fetching.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/propadvisor/go-assistant-backend/internal/domain"
	"github.com/propadvisor/go-assistant-backend/internal/repo"
)

// Identity resolution variants.
const (
	// IdentityFound means the token matched an existing user.
	IdentityFound = "found"
	// IdentityProvisioned means a new user was created for an unseen email.
	IdentityProvisioned = "provisioned"
	// IdentityNotFound means a well-formed id matched no user.
	IdentityNotFound = "not_found"
	// IdentityMalformed means the token was neither an id nor an email.
	IdentityMalformed = "malformed"
)

var (
	identityEmailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	emailScanRE     = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
)

// identityResult carries the outcome of one resolution attempt. User is
// non-nil only for the Found and Provisioned variants.
type identityResult struct {
	Variant string
	User    *domain.User
}

// resolveIdentity maps a caller token to a user.
//
// Resolution order:
//  1. Token parses as a UUID: primary-key lookup. A miss falls through
//     to the message scan, never to provisioning, because a structured
//     id names a specific row.
//  2. Token is email-shaped: unique-index lookup (case-insensitive),
//     provisioning a new user on a miss.
//  3. Last resort: the message text is scanned for an email address,
//     which then goes through the same email tier.
//
// Only storage failures surface as errors; every identity verdict,
// negative ones included, comes back in the result.
func resolveIdentity(ctx context.Context, store Store, token, message string) (identityResult, error) {
	token = strings.TrimSpace(token)

	if _, err := uuid.Parse(token); err == nil {
		u, err := store.FindUserByID(ctx, token)
		if err != nil {
			return identityResult{}, err
		}
		if u != nil {
			return identityResult{Variant: IdentityFound, User: u}, nil
		}
		if email := emailScanRE.FindString(message); email != "" {
			return resolveByEmail(ctx, store, email)
		}
		return identityResult{Variant: IdentityNotFound}, nil
	}

	if identityEmailRE.MatchString(token) {
		return resolveByEmail(ctx, store, token)
	}
	if email := emailScanRE.FindString(message); email != "" {
		return resolveByEmail(ctx, store, email)
	}

	return identityResult{Variant: IdentityMalformed}, nil
}

// resolveByEmail looks an address up on the unique email index and
// provisions a user when no row exists.
func resolveByEmail(ctx context.Context, store Store, email string) (identityResult, error) {
	email = strings.ToLower(email)
	u, err := store.FindUserByEmail(ctx, email)
	if err != nil {
		return identityResult{}, err
	}
	if u != nil {
		return identityResult{Variant: IdentityFound, User: u}, nil
	}

	created, err := store.CreateUser(ctx, &domain.User{Email: email})
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			// Lost the provisioning race; the row exists now.
			u, ferr := store.FindUserByEmail(ctx, email)
			if ferr != nil {
				return identityResult{}, ferr
			}
			if u != nil {
				return identityResult{Variant: IdentityFound, User: u}, nil
			}
		}
		return identityResult{}, err
	}
	return identityResult{Variant: IdentityProvisioned, User: created}, nil
}

package auth

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

type (
	// Claims are the verified contents of an auth token.
	Claims struct {
		UserID       string
		Role         string
		HomeTenantID string
		IssuedAt     time.Time
		ExpiresAt    time.Time
	}

	// TokenVerifier checks a token's signature and expiry and returns
	// its claims. Implementations live outside this package
	// (services/token provides the JWT one).
	TokenVerifier interface {
		// Verify returns ErrTokenExpired for a well-formed but expired
		// token and ErrTokenInvalid for anything else it cannot accept.
		Verify(ctx context.Context, token string) (Claims, error)
	}

	// SessionResolver turns a raw auth token into an Identity.
	// Verification failures never surface as errors: the caller always
	// gets an Identity, possibly Anonymous.
	SessionResolver struct {
		verifier TokenVerifier
		log      core.Logger
	}
)

func NewSessionResolver(verifier TokenVerifier, log core.Logger) *SessionResolver {
	return &SessionResolver{verifier: verifier, log: log}
}

func (sr *SessionResolver) Resolve(ctx context.Context, token string) Identity {
	if token == "" {
		return Anonymous
	}

	claims, err := sr.verifier.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			// routine: caller redirects to login
			return Anonymous
		}
		// malformed/forged tokens are security-relevant
		sr.log.Warn("session token rejected", err)
		return Anonymous
	}

	if !KnownRole(claims.Role) {
		sr.log.Warn("session token carries unknown role: " + claims.Role)
		return Anonymous
	}

	idn := Identity{
		UserID:       claims.UserID,
		Role:         claims.Role,
		HomeTenantID: claims.HomeTenantID,
	}
	switch {
	case idn.IsOperator():
		// operators have no fixed home tenant, whatever the token says
		idn.HomeTenantID = ""
	case !idn.IsAssigned():
		// authenticated but not yet attached to a tenant
		idn.Role = RoleUnassigned
	}
	return idn
}

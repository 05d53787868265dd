package tokensvc

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/auth"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Role     string `json:"role,omitempty"`
	TenantID string `json:"tid,omitempty"` // home tenant
}

// JWTService is the JWT implementation of auth.TokenVerifier. In
// production tokens are minted by the identity provider with the same
// shared secret; Issue exists for dev tooling and tests.
type JWTService struct {
	appName         string
	secretKey       []byte
	expirationDelta time.Duration
}

var _ auth.TokenVerifier = (*JWTService)(nil)

func NewJWTService(conf *core.Config) *JWTService {
	return &JWTService{
		appName:         conf.AppName,
		secretKey:       conf.SecretKey,
		expirationDelta: conf.Server.JWTExpirationDelta,
	}
}

func (svc *JWTService) Verify(_ context.Context, token string) (auth.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, new(Claims), func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return svc.secretKey, nil
	})
	if err != nil {
		if vErr, ok := err.(*jwt.ValidationError); ok && vErr.Errors&jwt.ValidationErrorExpired != 0 {
			return auth.Claims{}, auth.ErrTokenExpired
		}
		return auth.Claims{}, auth.ErrTokenInvalid
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return auth.Claims{}, auth.ErrTokenInvalid
	}
	return auth.Claims{
		UserID:       claims.Subject,
		Role:         claims.Role,
		HomeTenantID: claims.TenantID,
		IssuedAt:     time.Unix(claims.IssuedAt, 0),
		ExpiresAt:    time.Unix(claims.ExpiresAt, 0),
	}, nil
}

// Issue generates a signed token string for the given identity.
func (svc *JWTService) Issue(idn auth.Identity) (string, error) {
	now := time.Now()
	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    svc.appName,
			Subject:   idn.UserID,
			ExpiresAt: now.Add(svc.expirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Role:     idn.Role,
		TenantID: idn.HomeTenantID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(svc.secretKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

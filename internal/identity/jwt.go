package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"skinscan/internal/model"
)

const audience = "authenticated"

// Claims is the subset of provider access-token claims the API relies on.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
}

// JWTVerifier checks HS256 access tokens locally with the provider's JWT secret.
type JWTVerifier struct {
	secret []byte
	parser *jwt.Parser
}

var _ Authenticator = (*JWTVerifier)(nil)

// NewJWTVerifier returns a verifier for tokens signed with secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Authenticate validates signature, expiry and subject. The audience is only
// enforced when the token carries one.
func (v *JWTVerifier) Authenticate(_ context.Context, token string) (model.Identity, error) {
	claims := &Claims{}
	parsed, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return model.Identity{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return model.Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if len(claims.Audience) > 0 && !containsAudience(claims.Audience, audience) {
		return model.Identity{}, fmt.Errorf("%w: unexpected audience", ErrInvalidToken)
	}
	return model.Identity{ID: claims.Subject, Email: claims.Email}, nil
}

func containsAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}

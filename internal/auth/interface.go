package auth

import "github.com/golang-jwt/jwt/v5"

// Claims are the token claims the API relies on. Subject identifies the caller.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// JWTVerifier defines the interface for JWT token verification.
// The middleware only depends on this, so tests can swap in a fake.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns an error if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*Claims, error)

	// Close releases any resources held by the verifier
	Close() error
}

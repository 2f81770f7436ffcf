package utils

import (
	"crypto/rand"  // secure random refresh token generation
	"encoding/hex" // hex encoding of the refresh token
	"strconv"      // user id to subject conversion
	"time"         // expiry computation

	"github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens
)

// AccessClaims are the claims carried by an access token: the
// standard registered set (sub, iss, aud, iat, exp) plus the user's
// matricule and role names. Consumers must validate signature,
// issuer, audience and expiry before trusting any of these.
type AccessClaims struct {
	Matricule string   `json:"matricule"`
	Roles     []string `json:"roles"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into a user id.
func (c *AccessClaims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// AccessToken represents a signed JWT access token along with its
// expiry. Access tokens are short-lived and sent in the
// Authorization header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long-lived opaque token used to obtain
// new access tokens. Raw is the value handed to the client and
// stored against the user record; Exp records when it expires.
type RefreshToken struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. The
// subject is the user id, and the issuer/audience claims come from
// configuration so that validation can enforce them.
func NewAccessToken(secret, issuer, audience string, userID uint64, matricule string, roles []string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := AccessClaims{
		Matricule: matricule,
		Roles:     roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken returns a cryptographically secure random opaque
// token and its expiration time. The token is a pure lookup key; it
// carries no structure and is matched against the value stored on
// the user row.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
	raw, err := randomHex(48) // 48 bytes -> 96 hex chars
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

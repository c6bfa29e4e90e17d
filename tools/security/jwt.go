package security

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Token kinds carried in the "typ" claim.
const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Options controls signing and TTLs.
type Options struct {
	Secret     []byte        // HMAC secret (from ENV/KMS in production)
	Alg        string        // HS256/HS384/HS512 (default HS256)
	TTL        time.Duration // access token lifetime (default 2h)
	RefreshTTL time.Duration // refresh token lifetime (default 7d)
}

type JWTClaims struct {
	jwtlib.MapClaims
}

func DefaultOptions(secret []byte) Options {
	return Options{Secret: secret, Alg: "HS256", TTL: 2 * time.Hour, RefreshTTL: 7 * 24 * time.Hour}
}

// UserID returns the sub claim.
func (c *JWTClaims) UserID() string {
	sub, _ := c.GetSubject()
	return sub
}

// Kind returns the typ claim ("access" / "refresh").
func (c *JWTClaims) Kind() string {
	if v, ok := c.MapClaims["typ"].(string); ok {
		return v
	}
	return ""
}

func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Generate signs a token of the given kind for userID.
func Generate(opts Options, userID, kind string) (token string, expireAt time.Time, err error) {
	method, err := signingMethod(opts.Alg)
	if err != nil {
		return "", time.Time{}, err
	}
	// zero means default; a negative TTL is honored and mints an
	// already-expired token
	ttl := opts.TTL
	if kind == TokenRefresh {
		ttl = opts.RefreshTTL
		if ttl == 0 {
			ttl = 7 * 24 * time.Hour
		}
	}
	if ttl == 0 {
		ttl = 2 * time.Hour
	}
	now := time.Now()
	exp := now.Add(ttl)

	claims := jwtlib.MapClaims{
		"sub": userID,
		"typ": kind,
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"exp": exp.Unix(),
	}

	tok := jwtlib.NewWithClaims(method, claims)
	signed, err := tok.SignedString(opts.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// GeneratePair issues an access + refresh token pair for userID.
func GeneratePair(opts Options, userID string) (access, refresh string, err error) {
	access, _, err = Generate(opts, userID, TokenAccess)
	if err != nil {
		return "", "", err
	}
	refresh, _, err = Generate(opts, userID, TokenRefresh)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// Verify parses and validates a token and checks it is of the wanted kind.
func Verify(opts Options, token, wantKind string) (*JWTClaims, error) {
	if _, err := signingMethod(opts.Alg); err != nil {
		return nil, err
	}
	parsed, err := jwtlib.Parse(token, func(t *jwtlib.Token) (interface{}, error) {
		// HMAC family only
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected alg: %v", t.Header["alg"])
		}
		return opts.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("claims type mismatch")
	}
	c := &JWTClaims{claims}
	if wantKind != "" && c.Kind() != wantKind {
		return nil, fmt.Errorf("token kind mismatch: want %s got %s", wantKind, c.Kind())
	}
	if c.UserID() == "" {
		return nil, errors.New("missing sub claim")
	}
	return c, nil
}

func signingMethod(alg string) (jwtlib.SigningMethod, error) {
	switch strings.ToUpper(strings.TrimSpace(alg)) {
	case "", "HS256":
		return jwtlib.SigningMethodHS256, nil
	case "HS384":
		return jwtlib.SigningMethodHS384, nil
	case "HS512":
		return jwtlib.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported alg: %s (use HS256/HS384/HS512)", alg)
	}
}

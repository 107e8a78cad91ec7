package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

// Authentication modes.
const (
	// ModeJWT expects an HS256 bearer token whose sub claim is the user id.
	ModeJWT = "jwt"
	// ModeHeader trusts the X-User-ID header set by a gateway in front of the server.
	ModeHeader = "header"
)

// HeaderUserID carries the caller's id in header mode.
const HeaderUserID = "X-User-ID"

var (
	errMissingAuthorization = errors.New("missing authorization header")
	errBadAuthorization     = errors.New("bad auth header")
	errMissingSubject       = errors.New("missing sub")
)

// Auth resolves the calling user of a request.
type Auth struct {
	Mode   string
	Secret []byte

	parser *jwt.Parser
}

// NewAuth creates an Auth for mode. A secret is required in jwt mode.
func NewAuth(mode string, secret []byte) (*Auth, error) {
	switch strings.ToLower(mode) {
	case ModeJWT, "":
		if len(secret) == 0 {
			return nil, errors.New("a jwt secret is required in jwt mode")
		}
		return &Auth{
			Mode:   ModeJWT,
			Secret: secret,
			parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		}, nil
	case ModeHeader:
		return &Auth{Mode: ModeHeader}, nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", mode)
	}
}

// UserIDFromHeader extracts the user id from the request headers.
func (a *Auth) UserIDFromHeader(header http.Header) (int, error) {
	if a.Mode == ModeHeader {
		raw := strings.TrimSpace(header.Get(HeaderUserID))
		if raw == "" {
			return 0, errMissingAuthorization
		}
		return parseUserID(raw)
	}

	token, err := bearerTokenFromString(header.Get(echo.HeaderAuthorization))
	if err != nil {
		return 0, err
	}
	return a.UserIDFromBearer(token)
}

// UserIDFromBearer verifies an HS256 token and returns its subject.
func (a *Auth) UserIDFromBearer(token string) (int, error) {
	if a.parser == nil {
		return 0, errors.New("bearer tokens are not accepted in header mode")
	}
	parsed, err := a.parser.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return a.Secret, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid claims")
	}
	if !claims.VerifyExpiresAt(time.Now().Unix(), true) {
		return 0, errors.New("token expired")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return 0, errMissingSubject
	}
	return parseUserID(sub)
}

// IssueToken signs a token for userID that expires after ttl.
func (a *Auth) IssueToken(userID int, ttl time.Duration) (string, error) {
	if a.Mode != ModeJWT {
		return "", errors.New("tokens can only be issued in jwt mode")
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.Itoa(userID),
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
}

func bearerTokenFromString(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errMissingAuthorization
	}
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok || strings.Count(token, ".") != 2 {
		return "", errBadAuthorization
	}
	return token, nil
}

func parseUserID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

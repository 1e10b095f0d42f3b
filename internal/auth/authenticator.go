package auth

import (
	"crypto/subtle"
	"errors"
	"slices"
	"time"

	"github.com/VladGeana/radar/internal/ierr"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ScopeWarn    = "warn"
	ScopeInspect = "inspect"
)

type Claims struct {
	jwt.RegisteredClaims
	AuthorizedRooms []string `json:"authorizedRooms,omitempty"`
	Scope           []string `json:"scope,omitempty"`
}

// Authentication describes a caller of the administrative/ingestion
// surface. Participant sockets are not authenticated; only the REST front
// door is.
type Authentication struct {
	Subject         string
	AuthorizedRooms []string
	Scope           []string
	IsAdmin         bool
}

func (a *Authentication) CanWarn() bool {
	return a.IsAdmin || slices.Contains(a.Scope, ScopeWarn)
}

func (a *Authentication) CanInspect() bool {
	return a.IsAdmin || slices.Contains(a.Scope, ScopeInspect)
}

func (a *Authentication) IsAuthorized(room string) bool {
	if a.Subject == "" {
		return false
	}

	if a.IsAdmin {
		return true
	}

	return slices.Contains(a.AuthorizedRooms, room)
}

type Authenticator struct {
	secret    []byte
	apiKeys   []string
	jwtParser *jwt.Parser
}

func NewAuthenticator(secret string, apiKeys []string) *Authenticator {
	jwtParser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(30*time.Second),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithAudience("radar"),
	)

	return &Authenticator{
		secret:    []byte(secret),
		apiKeys:   apiKeys,
		jwtParser: jwtParser,
	}
}

// Authenticate resolves a bearer token as either an API key or a JWT.
func (a *Authenticator) Authenticate(token string) (*Authentication, error) {
	authentication, err := a.AuthenticateAPIKey(token)
	if err == nil {
		return authentication, nil
	}

	return a.AuthenticateJWT(token)
}

func (a *Authenticator) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("unexpected signing method"))
	}
	return a.secret, nil
}

func (a *Authenticator) AuthenticateJWT(tokenString string) (*Authentication, error) {
	claims := Claims{}

	_, err := a.jwtParser.ParseWithClaims(tokenString, &claims, a.keyFunc)
	if err != nil {
		return nil, ierr.New(ierr.ErrorCodeUnauthenticated, err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("invalid subject claim"))
	}

	if len(claims.AuthorizedRooms) == 0 {
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument, errors.New("authorized rooms cannot be empty"))
	}

	return &Authentication{
		Subject:         subject,
		AuthorizedRooms: claims.AuthorizedRooms,
		Scope:           claims.Scope,
		IsAdmin:         false,
	}, nil
}

func (a *Authenticator) AuthenticateAPIKey(apiKey string) (*Authentication, error) {
	for _, key := range a.apiKeys {
		if subtle.ConstantTimeCompare([]byte(apiKey), []byte(key)) == 1 {
			return &Authentication{
				Subject: "api",
				Scope:   []string{ScopeWarn, ScopeInspect},
				IsAdmin: true,
			}, nil
		}
	}

	return nil, ierr.New(ierr.ErrorCodeUnauthenticated, errors.New("invalid api key"))
}

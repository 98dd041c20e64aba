package echoapi

import (
	"context"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ebusmomentum88/school-portal-backend/core"
	"github.com/ebusmomentum88/school-portal-backend/core/account"
)

// appJWTConfig is the default JWT auth middleware config.
var appJWTConfig = middleware.JWTConfig{
	SigningKey:    []byte(core.Conf.SecretKey),
	SigningMethod: middleware.AlgorithmHS256,
	ContextKey:    "accountToken",
	Claims:        new(Claims),
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name       string `json:"name,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	Role       string `json:"role,omitempty"`
	IsStudent  bool   `json:"is_student,omitempty"` // -> STUDENT PORTAL
	IsTeacher  bool   `json:"is_teacher,omitempty"` // -> TEACHER PORTAL
	IsAdmin    bool   `json:"is_admin,omitempty"`   // -> ADMIN PORTAL
}

func GetAccountClaims(acct account.Account) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   acct.CredentialRef,
			Audience:  "SchoolPortal",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:       acct.DisplayName,
		Identifier: acct.Identifier,
		Role:       acct.Role,
		IsStudent:  acct.IsStudent(),
		IsTeacher:  acct.IsTeacher(),
		IsAdmin:    acct.IsAdmin(),
	}
}

func authenticate(ctx context.Context, handle, pwd string, svc *account.Service) (*Claims, error) {
	acct, err := svc.Authenticate(ctx, handle, pwd)
	if err != nil {
		if errors.Cause(err) == core.ErrAuthenticationFailed {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "authenticating")
	}
	return GetAccountClaims(acct), nil
}

// GenerateToken generates a signed JWT token string representing the account Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

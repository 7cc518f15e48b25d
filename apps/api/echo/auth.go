package echoapi

import (
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/attendix/attendix/core"
	"github.com/attendix/attendix/core/user"
)

const (
	contextTokenKey = "userToken"
	contextActorKey = "actor"
	tokenAudience   = "Attendix"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt   int64  `json:"oriat,omitempty"`
	EmployeeID     int    `json:"employee_id,omitempty"`
	OrganizationID int    `json:"organization_id"`
	Name           string `json:"name,omitempty"`
	Email          string `json:"email,omitempty"`
	Role           string `json:"role"`
	LoginType      string `json:"login_type"`
}

// UserID returns the id of the user the claims were issued to.
func (c Claims) UserID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

// Actor returns the principal the claims authenticate.
func (c Claims) Actor() core.Actor {
	return core.Actor{
		UserID:         c.UserID(),
		EmployeeID:     c.EmployeeID,
		OrganizationID: c.OrganizationID,
		Name:           c.Name,
		Email:          c.Email,
		Role:           c.Role,
	}
}

func jwtConfig(conf *core.Config, lookup string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
		TokenLookup:   lookup,
	}
}

func GetUserClaims(conf *core.Config, usr user.User, origIat ...int64) *Claims {
	now := core.NowFunc()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   strconv.Itoa(usr.ID),
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:   oriat,
		EmployeeID:     usr.EmployeeID,
		OrganizationID: usr.OrganizationID,
		Name:           usr.Name,
		Email:          usr.Email,
		Role:           usr.Role,
		LoginType:      usr.LoginType,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// getContextActor returns the actor set by actorMiddleware.
func getContextActor(ctx echo.Context) (core.Actor, error) {
	if actor, ok := ctx.Get(contextActorKey).(core.Actor); ok {
		return actor, nil
	}
	return core.Actor{}, errUnauthorized
}

// refreshToken issues a new token for the context user while the refresh window is open.
func refreshToken(ctx echo.Context, conf *core.Config, svc *user.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.UserID())
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return "", errUnauthorized
		}
		return "", errors.Wrap(err, "finding user by ID")
	}

	// check if user is still active
	if !usr.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.JWTRefreshExpirationDelta)
	if core.NowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	token, err := GenerateToken(conf, GetUserClaims(conf, usr, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}

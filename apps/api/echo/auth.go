package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/bossmaker/core"
	"github.com/trezcool/bossmaker/core/user"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "userToken",
		Claims:        new(Claims),
		ErrorHandler:  jwtErrorHandler,
	}
	contextUserKey = "user"
)

// Claims represents the authorization claims transmitted via a JWT. The
// profile snapshot mirrors what clients render without a follow-up fetch.
type Claims struct {
	jwt.StandardClaims
	FirstName    string                `json:"first_name,omitempty"`
	LastName     string                `json:"last_name,omitempty"`
	Email        string                `json:"email,omitempty"`
	Role         user.Role             `json:"user_type,omitempty"`
	MobileNo     string                `json:"mobile_no,omitempty"`
	ProfileImage string                `json:"profile_image,omitempty"`
	DOB          *time.Time            `json:"dob,omitempty"`
	Permissions  user.PermissionMatrix `json:"permission,omitempty"`
}

func GetUserClaims(usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		FirstName:    usr.FirstName,
		LastName:     usr.LastName,
		Email:        usr.Email,
		Role:         usr.Role,
		MobileNo:     usr.MobileNo,
		ProfileImage: core.Conf.FileURL("users", usr.ProfileImage),
		DOB:          usr.DOB,
		Permissions:  usr.Permissions,
	}
}

func authenticate(ctx echo.Context, email, pwd string, svc user.ServiceInterface) (user.User, error) {
	usr, err := svc.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, errAuthenticationFailed
		}
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return user.User{}, errAuthenticationFailed
	}
	// admins log in regardless of status
	if !usr.Role.IsAdmin() && !usr.IsActive {
		return user.User{}, errAccountDeactivated
	}
	return usr, nil
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func jwtErrorHandler(err error) error {
	msg := "Authorization header missing. Access denied."
	if vErr, ok := err.(*jwt.ValidationError); ok {
		msg = "Invalid or expired token. Access denied."
		if vErr.Errors&jwt.ValidationErrorExpired != 0 {
			msg = "Token has expired. Please login again."
		}
	}
	return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
		"status":     false,
		"message":    msg,
		"jwtExpired": true,
	})
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc user.ServiceInterface, clms ...Claims) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return user.User{}, errors.Wrap(err, "getting context claims")
		}
	}

	usr, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, echo.NewHTTPError(http.StatusUnauthorized, echo.Map{
				"status":     false,
				"message":    "User not found. Access denied.",
				"jwtExpired": true,
			})
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}

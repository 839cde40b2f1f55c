package serving

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenDuration is used when no duration is configured
const DefaultTokenDuration = time.Hour * 24

// Authenticator checks users and their tokens. No secret means no authentication
type Authenticator struct {
	// Secret signs tokens
	Secret string
	// Users are passwords per login
	Users map[string]string
	// TokenDuration is the validity of a token
	TokenDuration time.Duration
	// now is the clock for tokens, time.Now if nil
	now func() time.Time
}

// NewAuthenticator returns an authenticator for users
func NewAuthenticator(secret string, users map[string]string, duration time.Duration) Authenticator {
	if duration <= 0 {
		duration = DefaultTokenDuration
	}

	return Authenticator{Secret: secret, Users: users, TokenDuration: duration}
}

// Enabled returns true if tokens are expected
func (a Authenticator) Enabled() bool {
	return a.Secret != ""
}

func (a Authenticator) clock() time.Time {
	if a.now == nil {
		return time.Now()
	}

	return a.now()
}

// CheckUser returns true if login exists with that password
func (a Authenticator) CheckUser(login, password string) bool {
	expected, found := a.Users[login]
	return found && subtle.ConstantTimeCompare([]byte(expected), []byte(password)) == 1
}

// createToken builds a new token for a given login
func (a Authenticator) createToken(userName string) (string, error) {
	now := a.clock()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.RegisteredClaims{
			Subject:   userName,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.TokenDuration)),
		})

	if token, err := token.SignedString([]byte(a.Secret)); err != nil {
		return "", errors.Wrap(err, "cannot sign token")
	} else {
		return token, nil
	}
}

// validateAuthentication reads header and then test if token is valid.
// Result is login coming from request, true for auth success, the detailed error otherwise
func (a Authenticator) validateAuthentication(r *http.Request) (string, bool, error) {
	// header should contain Authorization: Bearer <token>
	if r == nil {
		return "", false, errors.New("empty request")
	}

	var header string
	if values, found := r.Header["Authorization"]; !found {
		return "", false, nil
	} else if len(values) != 1 {
		return "", false, nil
	} else {
		header = strings.Trim(values[0], " ")
	}

	tokenValue, isBearer := strings.CutPrefix(header, "Bearer ")
	if !isBearer {
		return "", false, nil
	}

	expectedSecretFunc := func(token *jwt.Token) (any, error) {
		return []byte(a.Secret), nil
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenValue, &claims, expectedSecretFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.clock),
	)

	login := claims.Subject
	switch {
	case err == nil && token.Valid:
		if _, found := a.Users[login]; !found {
			return login, false, errors.Newf("unknown user %s", login)
		}

		return login, true, nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return login, false, errors.New("malformed token")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return login, false, errors.New("invalid signature")
	case errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet):
		return login, false, errors.New("invalid token period")
	default:
		return login, false, err
	}
}

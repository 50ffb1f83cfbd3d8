package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoSubject = errors.New("token has no subject claim")

// UserIDFromToken reads the numeric user id from the session JWT's "sub"
// claim. The token is not verified here; the backend owns the signing key and
// rejects bad tokens on every call.
func UserIDFromToken(tokenStr string) (int64, error) {
	parser := jwt.NewParser()

	token, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return 0, fmt.Errorf("parsing token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return 0, ErrNoSubject
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id in token subject: %w", err)
	}

	return userID, nil
}

package helpers

import (
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/kamalnath14061995/IndusionCricket-sub001/models"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

func ParserTokenUnverified(tokenStr string) (jwt.MapClaims, bool) {
	var p jwt.Parser
	token, _, err := p.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return nil, false
	}
	tokendata, ok := token.Claims.(jwt.MapClaims)
	return tokendata, ok
}

// LooksLikeJWT is a sanity filter only: three non-empty dot separated
// segments. It says nothing about signature or expiry.
func LooksLikeJWT(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}

// UserFromToken reads the user out of an access token without verifying it.
// The result addresses per-user endpoints; the backend still authorizes.
func UserFromToken(token string) (*models.InfoUser, error) {
	if !LooksLikeJWT(token) {
		return nil, errors.New("malformed access token")
	}
	data, ok := ParserTokenUnverified(token)
	if !ok {
		return nil, errors.New("failed parsing access token")
	}

	var claims models.TokenClaims
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &claims,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(data)); err != nil {
		return nil, errors.Wrap(err, "failed decoding token claims")
	}

	user := claims.User()
	if user.ID == "" {
		return nil, errors.New("access token carries no user id")
	}
	return &user, nil
}

func ContainsMethod(a []models.MethodKey, x models.MethodKey) bool {
	for _, n := range a {
		if x == n {
			return true
		}
	}
	return false
}

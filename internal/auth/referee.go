package auth

import (
	gojwt "github.com/golang-jwt/jwt/v5"
)

// refereeClaims lists the claims that may carry the referee id, in priority order
var refereeClaims = []string{"refereeId", "user_id", "sub"}

// RefereeIDFromToken reads the referee id out of a JWT without verifying it.
// Verification belongs to the server; the client only needs the identity it
// presents in start commands.
func RefereeIDFromToken(token string) (string, error) {
	parser := gojwt.NewParser()
	parsed, _, err := parser.ParseUnverified(token, gojwt.MapClaims{})
	if err != nil {
		return "", err
	}

	claims, ok := parsed.Claims.(gojwt.MapClaims)
	if !ok {
		return "", nil
	}

	for _, key := range refereeClaims {
		if v, ok := claims[key].(string); ok && v != "" {
			return v, nil
		}
	}

	return "", nil
}

// Referee resolves the referee id from the provider's current token
type Referee struct {
	provider TokenProvider
}

// NewReferee reads the referee id from whatever token provider currently
// supplies the connection credential.
func NewReferee(provider TokenProvider) *Referee {
	return &Referee{provider: provider}
}

// RefereeID returns the id of the current credential, or "" when there is no
// token or it is not a JWT.
func (r *Referee) RefereeID() string {
	token, ok := r.provider.Token()
	if !ok {
		return ""
	}

	id, err := RefereeIDFromToken(token)
	if err != nil {
		return ""
	}
	return id
}

// Package jwt issues and verifies short-lived HS256 session tokens.
//
// Tokens carry the account id in the "sub" claim and the account role in a
// private "role" claim. Signing and verification are delegated to
// github.com/golang-jwt/jwt/v5; only HS256 is accepted when parsing, and an
// expiry is mandatory.
//
// # Usage
//
//	svc, err := jwt.NewFromString(cfg.JWTSecret, jwt.WithIssuer("admissiond"))
//	if err != nil {
//	    // handle error
//	}
//
//	token, err := svc.Issue(accountID, "user")
//
//	claims, err := svc.Parse(token)
//	switch {
//	case errors.Is(err, jwt.ErrExpiredToken):
//	    // ask the client to refresh
//	case err != nil:
//	    // reject
//	}
//	_ = claims.AccountID()
package jwt

package jwttoken

import (
	dErrors "vetting/pkg/domain-errors"
	authmw "vetting/pkg/platform/middleware/auth"
)

// JWTServiceAdapter satisfies authmw.JWTValidator. It also rejects tokens
// whose subject disagrees with the user_id claim.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(token string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Subject != "" && claims.Subject != claims.UserID {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "subject does not match user")
	}
	return &authmw.JWTClaims{UserID: claims.UserID, Role: claims.Role, JTI: claims.ID}, nil
}

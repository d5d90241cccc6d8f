package service

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/squadup/squadup/internal/domain"
)

// AuthService verifies bearer tokens issued by the external credential
// collaborator. Tokens are HMAC-signed; the subject is the identity id.
type AuthService struct {
	secret []byte
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: []byte(secret)}
}

// TokenClaims is the accepted claim set.
type TokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// AuthResult is the verified requester.
type AuthResult struct {
	IdentityID string
	Username   string
	Role       domain.Role
}

func (s *AuthService) AuthJwt(ctx context.Context, tokenString string) (AuthResult, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return AuthResult{}, errors.Wrap(err, "AuthService.AuthJwt: token parse failed")
	}
	if !token.Valid {
		return AuthResult{}, errors.New("AuthService.AuthJwt: invalid token")
	}
	if claims.Subject == "" {
		return AuthResult{}, errors.New("AuthService.AuthJwt: token has no subject")
	}

	role := domain.RoleUser
	switch domain.Role(claims.Role) {
	case domain.RoleModerator, domain.RoleAdmin:
		role = domain.Role(claims.Role)
	}

	return AuthResult{
		IdentityID: claims.Subject,
		Username:   claims.Username,
		Role:       role,
	}, nil
}

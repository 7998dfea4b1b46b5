package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"complaint-service/internal/model"
)

type Claims struct {
	SubjectID int64          `json:"sid"`
	Role      model.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	switch claims.Role {
	case model.UserRoleCitizen, model.UserRoleAdmin, model.UserRoleDepartment:
	default:
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}

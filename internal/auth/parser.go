package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Taskify-udl/taskify-contracts/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Parser validates access tokens issued by the accounts service and extracts
// the principal (identity + booking role) this core reasons about.
type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

func (p *Parser) Parse(raw string) (model.Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.UserID)
	if err != nil {
		return model.Principal{}, fmt.Errorf("%w: bad user_id claim", ErrInvalidToken)
	}

	var role model.Role
	switch model.Role(c.Role) {
	case model.RoleRequester, model.RoleProvider:
		role = model.Role(c.Role)
	default:
		return model.Principal{}, fmt.Errorf("%w: bad role claim %q", ErrInvalidToken, c.Role)
	}

	return model.Principal{UserID: userID, Role: role}, nil
}

package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"complaint-service/internal/model"
)

const issuerName = "complaint-service"

// Issuer signs HS256 access tokens that Parser accepts.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(subjectID int64, role model.UserRole) (model.AuthToken, error) {
	issuedAt := i.now().UTC()
	expiresAt := issuedAt.Add(i.ttl)

	claims := Claims{
		SubjectID: subjectID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return model.AuthToken{}, err
	}
	return model.AuthToken{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		Role:        role,
		SubjectID:   subjectID,
	}, nil
}

package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"meet-lab/domain"
	"meet-lab/errors"
)

// JoinClaims bind an invitation to a meeting and an email. A validated
// token replaces the client-claimed identity at join time, closing the
// bare-claim gap of trusting whatever email the socket presents.
type JoinClaims struct {
	Email     string `json:"email"`
	MeetingID string `json:"meeting_id"`
	InviteID  string `json:"invite_id"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and validates join tokens using HS256 (HMAC with
// SHA256). The secret comes from configuration, never from source.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl}
}

// Generate creates a signed join token for one invitation.
func (i *TokenIssuer) Generate(meetingID domain.MeetingID, email, inviteID string) (string, error) {
	now := time.Now()
	claims := &JoinClaims{
		Email:     email,
		MeetingID: string(meetingID),
		InviteID:  inviteID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "meet-lab",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Validate parses and verifies the signature and expiration of a join
// token, and checks it was minted for the meeting being joined.
func (i *TokenIssuer) Validate(tokenString string, meetingID domain.MeetingID) (*JoinClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JoinClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		return nil, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*JoinClaims)
	if !ok || !token.Valid {
		return nil, errors.ErrInvalidToken
	}
	if claims.MeetingID != string(meetingID) {
		return nil, errors.ErrInvalidToken
	}
	return claims, nil
}

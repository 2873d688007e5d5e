package utils

import (
	"fmt"
	"time"

	"go-storefront/apperr"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

// Token purposes. An identity token cannot be used to reset a password and a
// reset token cannot authenticate requests.
const (
	PurposeIdentity = "identity"
	PurposeReset    = "reset"
)

// Claims represents the JWT claims
type Claims struct {
	UserID  string `json:"_id"`
	IsAdmin bool   `json:"isAdmin,omitempty"`
	Purpose string `json:"purpose"`
	jwt.StandardClaims
}

// TokenIssuer signs and verifies HS256 tokens with one secret
type TokenIssuer struct {
	key         []byte
	identityTTL time.Duration
	resetTTL    time.Duration
}

// NewTokenIssuer creates a TokenIssuer
func NewTokenIssuer(secret string, identityTTL, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{key: []byte(secret), identityTTL: identityTTL, resetTTL: resetTTL}
}

// Issue generates an identity token carrying the user id and admin flag
func (ti *TokenIssuer) Issue(userID string, isAdmin bool) (string, error) {
	return ti.sign(&Claims{
		UserID:  userID,
		IsAdmin: isAdmin,
		Purpose: PurposeIdentity,
	}, ti.identityTTL)
}

// IssueReset generates a password-reset token for the user
func (ti *TokenIssuer) IssueReset(userID string) (string, error) {
	return ti.sign(&Claims{UserID: userID, Purpose: PurposeReset}, ti.resetTTL)
}

func (ti *TokenIssuer) sign(claims *Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.StandardClaims = jwt.StandardClaims{
		Id:        uuid.NewString(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(ti.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// Parse verifies an identity token
func (ti *TokenIssuer) Parse(tokenStr string) (*Claims, error) {
	return ti.parse(tokenStr, PurposeIdentity)
}

// ParseReset verifies a password-reset token
func (ti *TokenIssuer) ParseReset(tokenStr string) (*Claims, error) {
	return ti.parse(tokenStr, PurposeReset)
}

func (ti *TokenIssuer) parse(tokenStr, purpose string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return ti.key, nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Unauthorized, "Invalid token")
	}
	if !token.Valid || claims.Purpose != purpose || claims.UserID == "" {
		return nil, apperr.Unauthorizedf("Invalid token")
	}
	return claims, nil
}

package main

import (
	"errors"
	"time"

	"github.com/Thanhdhxd/logbook-app/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const tokenTTL = 7 * 24 * time.Hour

// signJWT creates an HS256 token for u valid for tokenTTL from now.
func signJWT(secret string, u *models.User, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":   u.ID.Hex(),
		"email": u.Email,
		"name":  u.Name,
		"jti":   uuid.NewString(),
		"exp":   now.Add(tokenTTL).Unix(),
		"iat":   now.Unix(),
		"iss":   "logbook",
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// parseJWT validates token against the clock now and returns subject as ObjectID.
func parseJWT(secret, tokenStr string, now func() time.Time) (primitive.ObjectID, error) {
	tok, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithTimeFunc(now), jwt.WithIssuer("logbook"))
	if err != nil || !tok.Valid {
		return primitive.NilObjectID, errors.New("invalid token")
	}
	if claims, ok := tok.Claims.(jwt.MapClaims); ok {
		if sub, ok := claims["sub"].(string); ok {
			return primitive.ObjectIDFromHex(sub)
		}
	}
	return primitive.NilObjectID, errors.New("no subject")
}

package helper

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

type accessToken struct {
	SignedString string
	TokenId      string
	ExpiresIn    time.Duration
}

// GenerateAccessToken signs a HS256 bearer token identifying the user with the given id.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func GenerateAccessToken(userId uint, secretKey string, expirationInSeconds int) (*accessToken, error) {
	currentTime := time.Now()
	tokenExpiration := currentTime.Add(time.Duration(expirationInSeconds) * time.Second)

	token := jwt.New()

	err := token.Set("userId", userId)
	if err != nil {
		return nil, err
	}

	tokenId := uuid.NewString()
	err = token.Set(jwt.JwtIDKey, tokenId)
	if err != nil {
		return nil, err
	}

	err = token.Set(jwt.ExpirationKey, tokenExpiration.Unix())
	if err != nil {
		return nil, err
	}

	err = token.Set(jwt.IssuedAtKey, currentTime.Unix())
	if err != nil {
		return nil, err
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, []byte(secretKey)))
	if err != nil {
		return nil, err
	}

	return &accessToken{
		SignedString: string(signed),
		TokenId:      tokenId,
		ExpiresIn:    tokenExpiration.Sub(currentTime),
	}, nil
}

type accessTokenClaims struct {
	UserId    uint
	ID        string
	ExpiresIn time.Duration
	IssuedAt  int64
}

// ValidateAccessToken verifies the signature and expiration of tokenString and returns its claims.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func ValidateAccessToken(tokenString string, secretKey string) (*accessTokenClaims, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256, []byte(secretKey)),
		jwt.WithValidate(true),
	)
	if err != nil {
		return nil, err
	}

	userId, ok := token.Get("userId")
	if !ok {
		return nil, errors.New("userId not found in claims")
	}

	id, ok := userId.(float64)
	if !ok || id <= 0 {
		return nil, fmt.Errorf("invalid userId claim: %v", userId)
	}

	return &accessTokenClaims{
		UserId:    uint(id),
		ID:        token.JwtID(),
		ExpiresIn: time.Until(token.Expiration()),
		IssuedAt:  token.IssuedAt().Unix(),
	}, nil
}

package utils

import (
	"errors"
	"regexp"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"gms_backend/pkg/config"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// MobileTokenClaims is the bearer token payload for the mobile API
type MobileTokenClaims struct {
	SubscriberID int    `json:"subscriber_id"`
	Mobile       string `json:"mobile"`
	jwt.RegisteredClaims
}

var lifetimePattern = regexp.MustCompile(`^(\d+)([dhm])$`)

// tokenLifetime parses JWT_EXPIRES_IN values like "7d", "12h" or "30m".
// Unrecognized values fall back to 7 days with a warning.
func tokenLifetime(v string) time.Duration {
	m := lifetimePattern.FindStringSubmatch(v)
	if m == nil {
		logrus.Warnf("unrecognized JWT_EXPIRES_IN %q, defaulting to 7d", v)
		return 7 * 24 * time.Hour
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		logrus.Warnf("unrecognized JWT_EXPIRES_IN %q, defaulting to 7d", v)
		return 7 * 24 * time.Hour
	}
	switch m[2] {
	case "d":
		return time.Duration(n) * 24 * time.Hour
	case "h":
		return time.Duration(n) * time.Hour
	default:
		return time.Duration(n) * time.Minute
	}
}

// MintMobileToken issues a signed bearer token for a subscriber
func MintMobileToken(subscriberID int, mobile string) (string, error) {
	duration := tokenLifetime(config.AppConfig.JWTExpiresIn)

	claims := MobileTokenClaims{
		SubscriberID: subscriberID,
		Mobile:       mobile,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// VerifyMobileToken verifies and parses a bearer token. Expired tokens
// return ErrTokenExpired, anything else bad returns ErrTokenInvalid.
func VerifyMobileToken(tokenString string) (*MobileTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &MobileTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*MobileTokenClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrTokenInvalid
}

package util

import (
	"errors"
	"sync"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sdghub/backend/dao/model"
	"github.com/sdghub/backend/pkg/config"
)

var (
	ErrTokenExpired   = errors.New("access token expired")
	ErrTokenInvalid   = errors.New("access token invalid")
	ErrRefreshExpired = errors.New("refresh token expired")
	ErrRefreshInvalid = errors.New("refresh token invalid")
)

type (
	JWTClaims struct {
		UserID uuid.UUID  `json:"ui"`
		Email  string     `json:"em"`
		Role   model.Role `json:"ro"`
		jwt.RegisteredClaims
	}
	JWTMessage struct {
		UserID uuid.UUID  `json:"userID"`
		Email  string     `json:"email"`
		Role   model.Role `json:"role"`
	}
)

// TokenManager signs and verifies the two token families. Access and
// refresh tokens are signed with different secrets, so one can never be
// presented in place of the other.
type TokenManager struct {
	accessSecret    string
	refreshSecret   string
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

var (
	once     sync.Once
	tokenMgr *TokenManager
)

func GetTokenMgr() *TokenManager {
	once.Do(func() {
		auth := config.GetConfig().Auth
		tokenMgr = NewTokenManager(
			auth.AccessTokenSecret,
			auth.RefreshTokenSecret,
			time.Duration(auth.AccessTokenTTLMin)*time.Minute,
			time.Duration(auth.RefreshTokenTTLDay)*24*time.Hour,
		)
	})
	return tokenMgr
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:    accessSecret,
		refreshSecret:   refreshSecret,
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
	}
}

func (tm *TokenManager) createToken(msg *JWTMessage, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &JWTClaims{
		UserID: msg.UserID,
		Email:  msg.Email,
		Role:   msg.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// CreateTokens creates a new access token and a new refresh token
func (tm *TokenManager) CreateTokens(msg *JWTMessage) (
	accessToken string, refreshToken string, err error) {
	accessToken, err = tm.createToken(msg, tm.accessSecret, tm.accessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = tm.createToken(msg, tm.refreshSecret, tm.refreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (tm *TokenManager) verify(requestToken, secret string, errExpired, errInvalid error) (JWTMessage, time.Duration, error) {
	claims := JWTClaims{}
	_, err := jwt.ParseWithClaims(requestToken, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return JWTMessage{}, 0, errExpired
		}
		return JWTMessage{}, 0, errInvalid
	}
	msg := JWTMessage{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
	}
	return msg, time.Until(claims.ExpiresAt.Time), nil
}

// CheckAccessToken verifies an access token and reports its remaining
// lifetime, which the verify endpoint surfaces to the frontend.
func (tm *TokenManager) CheckAccessToken(requestToken string) (JWTMessage, time.Duration, error) {
	return tm.verify(requestToken, tm.accessSecret, ErrTokenExpired, ErrTokenInvalid)
}

func (tm *TokenManager) CheckRefreshToken(requestToken string) (JWTMessage, error) {
	msg, _, err := tm.verify(requestToken, tm.refreshSecret, ErrRefreshExpired, ErrRefreshInvalid)
	return msg, err
}

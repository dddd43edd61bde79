// Package auth 签发和校验房主令牌（HS256 JWT，绑定房间号）
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/palemoky/emoguchi/internal/apperrors"
)

// 令牌有效期，与房间最长生命周期相当
const defaultTokenTTL = 24 * time.Hour

const issuer = "emoguchi"

// ErrInvalidToken 令牌缺失、过期、签名错误或不属于该房间
var ErrInvalidToken = &apperrors.GameError{Kind: apperrors.KindForbidden, Message: "Invalid host token"}

type hostClaims struct {
	RoomID string `json:"roomId"`
	jwt.RegisteredClaims
}

// HostTokens 房主令牌签发器
type HostTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewHostTokens 创建签发器，ttl <= 0 时使用默认有效期
func NewHostTokens(secret string, ttl time.Duration) *HostTokens {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &HostTokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue 为房间签发令牌
func (h *HostTokens) Issue(roomID string) (string, error) {
	now := h.now()
	claims := hostClaims{
		RoomID: roomID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   roomID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(h.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(h.secret)
}

// Verify 校验令牌属于 roomID
func (h *HostTokens) Verify(tokenString, roomID string) error {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return ErrInvalidToken
	}

	claims := &hostClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return h.secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(h.now),
	)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if claims.RoomID != roomID {
		return ErrInvalidToken
	}
	return nil
}

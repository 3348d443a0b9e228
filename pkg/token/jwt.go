// Package token 提供了用于生成和验证 JSON Web Tokens (JWT) 的功能。
// token 由外部认证服务签发，本服务只做校验；GenerateToken 用于本地联调和测试。
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTManager 负责管理 JWT 的生成和验证。
type JWTManager struct {
	secretKey      []byte
	accessTokenDur time.Duration
}

// CustomClaims 是认证服务写入 token 的声明，userId 为外部用户 ID。
type CustomClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// NewJWTManager 创建一个新的 JWTManager 实例。
func NewJWTManager(secret string, accessTokenExpireHours int) *JWTManager {
	return &JWTManager{
		secretKey:      []byte(secret),
		accessTokenDur: time.Hour * time.Duration(accessTokenExpireHours),
	}
}

// GenerateToken 为给定用户生成一个 HS256 签名的 access token。
func (m *JWTManager) GenerateToken(userID string) (string, error) {
	now := time.Now()
	claims := CustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
}

// VerifyToken 验证给定的 token 字符串，签名不匹配、已过期或缺少 userId 时返回错误。
func (m *JWTManager) VerifyToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 只接受 HMAC 签名
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secretKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no userId claim")
	}
	return claims, nil
}

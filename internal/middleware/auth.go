package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/user/dreadscale/internal/utils"
)

// TokenCookie 保存 JWT 的 Cookie 名
const TokenCookie = "token"

// 上下文中的身份字段
const (
	ctxUserID = "user_id"
	ctxEmail  = "email"
	ctxRole   = "role"
)

// RoleAdmin 管理员角色
const RoleAdmin = "admin"

var errNoToken = errors.New("no session token")

// Claims 登录会话声明
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// lifetime 签发时设定的有效期
func (c *Claims) lifetime() time.Duration {
	if c.ExpiresAt == nil || c.IssuedAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(c.IssuedAt.Time)
}

// sessionGuard 解析请求中的会话并写入上下文
type sessionGuard struct {
	secret []byte
}

func newSessionGuard(secret string) *sessionGuard {
	return &sessionGuard{secret: []byte(secret)}
}

// tokenFromRequest API 客户端用 Bearer 头，浏览器用 Cookie
func tokenFromRequest(c *gin.Context) string {
	if bearer, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); ok {
		if bearer = strings.TrimSpace(bearer); bearer != "" {
			return bearer
		}
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil {
		return cookie
	}
	return ""
}

func (g *sessionGuard) parse(raw string) (*Claims, error) {
	if raw == "" {
		return nil, errNoToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// attach 解析成功时写入身份，并在有效期过半后续签 Cookie
func (g *sessionGuard) attach(c *gin.Context) bool {
	claims, err := g.parse(tokenFromRequest(c))
	if err != nil {
		return false
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxEmail, claims.Email)
	c.Set(ctxRole, claims.Role)

	if shouldRefresh(claims) {
		g.refresh(c, claims)
	}
	return true
}

func (g *sessionGuard) refresh(c *gin.Context, claims *Claims) {
	lifetime := claims.lifetime()
	token, err := signToken(claims.UserID, claims.Email, claims.Role, g.secret, lifetime)
	if err != nil {
		return
	}
	c.SetCookie(TokenCookie, token, int(lifetime.Seconds()), "/", "", false, true)
}

// RequireAuth 未登录时页面跳转到账户页，API 返回 401
func RequireAuth(jwtSecret string) gin.HandlerFunc {
	guard := newSessionGuard(jwtSecret)
	return func(c *gin.Context) {
		if guard.attach(c) {
			c.Next()
			return
		}

		if strings.Contains(c.GetHeader("Accept"), "text/html") {
			c.Redirect(http.StatusFound, "/account?redirect="+url.QueryEscape(c.Request.URL.RequestURI()))
		} else {
			utils.Unauthorized(c, "")
		}
		c.Abort()
	}
}

// OptionalAuth 有合法会话时写入身份，否则按匿名继续
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	guard := newSessionGuard(jwtSecret)
	return func(c *gin.Context) {
		guard.attach(c)
		c.Next()
	}
}

// RequireAdmin 必须在 RequireAuth 之后使用
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != RoleAdmin {
			utils.Forbidden(c, "Administrator access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func contextString(c *gin.Context, key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)
	return s
}

// GetUserID 当前用户 ID，匿名时为空字符串
func GetUserID(c *gin.Context) string {
	return contextString(c, ctxUserID)
}

// GetRole 当前用户角色
func GetRole(c *gin.Context) string {
	return contextString(c, ctxRole)
}

// GenerateToken 签发会话 Token
func GenerateToken(userID, email, role, jwtSecret string, expiry time.Duration) (string, error) {
	return signToken(userID, email, role, []byte(jwtSecret), expiry)
}

func signToken(userID, email, role string, secret []byte, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// shouldRefresh 已用掉一半以上有效期
func shouldRefresh(claims *Claims) bool {
	lifetime := claims.lifetime()
	if lifetime <= 0 {
		return false
	}
	return time.Since(claims.IssuedAt.Time) > lifetime/2
}

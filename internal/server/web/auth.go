package web

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ordrebog/ordrebog/internal/common"
)

const adminCookie = "admin_token"

// Claims carries the admin flag in the signed session token.
type Claims struct {
	jwt.RegisteredClaims
	IsAdmin bool
}

// GenerateToken signs an admin session token valid for validityDuration.
func GenerateToken(secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		IsAdmin: true,
	})

	return token.SignedString(secretKey)
}

// VerifyToken parses tokenString and reports whether it grants admin.
func VerifyToken(tokenString string, secretKey []byte) (bool, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})
	if err != nil {
		return false, err
	}
	if !token.Valid {
		return false, common.ErrInvalidToken
	}

	return claims.IsAdmin, nil
}

// checkAdminKey compares the presented key against the configured bcrypt
// hash. An empty hash disables admin login entirely.
func (s *Server) checkAdminKey(key string) bool {
	if s.adminKeyHash == "" || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(s.adminKeyHash), []byte(key)) == nil
}

// isAdmin reports whether the request carries a valid admin cookie.
func (s *Server) isAdmin(r *http.Request) bool {
	cookie, err := r.Cookie(adminCookie)
	if err != nil {
		return false
	}
	admin, err := VerifyToken(cookie.Value, []byte(s.secretKey))
	if err != nil {
		return false
	}
	return admin
}

// requireAdmin guards mutating routes behind the admin cookie.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.isAdmin(r) {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

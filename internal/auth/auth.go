// server/internal/auth/auth.go
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// JWTClaims defines the payload for the JWT.
type JWTClaims struct {
	Email        string `json:"email"`
	Role         string `json:"role"`
	CompanyID    string `json:"companyID"`
	EnrollmentID string `json:"enrollmentID"`
	jwt.RegisteredClaims
}

// Hashing
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// JwtSecret được ghi đè từ config lúc khởi động (JWT_SECRET).
var JwtSecret = []byte("YOUR_SUPER_SECRET_KEY")

var tokenLifetime = 24 * time.Hour

// Configure nạp secret và thời hạn token từ config.
func Configure(secret, expiration string) {
	if secret != "" {
		JwtSecret = []byte(secret)
	}
	if expiration != "" {
		if d, err := time.ParseDuration(expiration); err == nil {
			tokenLifetime = d
		}
	}
}

func GenerateJWT(email, role, companyID, enrollmentID string) (string, error) {
	expirationTime := time.Now().Add(tokenLifetime)
	claims := &JWTClaims{
		Email:        email,
		Role:         role,
		CompanyID:    companyID,
		EnrollmentID: enrollmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtSecret)
}

package util

import (
	"crypto/subtle"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 12

var ErrAdminNotConfigured = errors.New("admin password hash is not configured")

// HashPassword 관리자 비밀번호 bcrypt 해시 (cmd/seed 에서 사용)
func HashPassword(password string) (string, error) {
	return HashPasswordWithCost(password, DefaultBcryptCost)
}

func HashPasswordWithCost(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword 해시와 평문 비교
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// CheckAdminCredentials 설정된 관리자 계정과 입력값 비교
// 사용자명은 상수 시간 비교, 해시가 비어 있으면 ErrAdminNotConfigured
func CheckAdminCredentials(wantUser, wantHash, user, password string) (bool, error) {
	if wantHash == "" {
		return false, ErrAdminNotConfigured
	}
	userOK := subtle.ConstantTimeCompare([]byte(wantUser), []byte(user)) == 1
	passOK := VerifyPassword(wantHash, password)
	return userOK && passOK, nil
}

package crypto

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost стоимость bcrypt (2^12 итераций)
const BcryptCost = 12

// HashPassword хеширует пароль через bcrypt.
// Соль генерируется bcrypt-ом автоматически и хранится внутри хеша,
// пароль в открытом виде никогда не сохраняется.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// VerifyPassword проверяет, соответствует ли пароль сохраненному хешу
// Возвращает ошибку если пароль не совпадает
func VerifyPassword(password, passwordHash string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}
	if passwordHash == "" {
		return fmt.Errorf("password hash cannot be empty")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return fmt.Errorf("invalid password")
	}

	return nil
}

package validation

import (
	"fmt"
	"regexp"
)

// GroupNamePattern определяет допустимый формат имени группы
// Латинские буквы, цифры, дефис и нижнее подчеркивание, 1-64 символа
var GroupNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// MaxGroupNameLen максимальная длина имени группы
const MaxGroupNameLen = 64

// ValidateGroupName проверяет, что имя группы соответствует требованиям
func ValidateGroupName(name string) error {
	if name == "" {
		return fmt.Errorf("group name cannot be empty")
	}

	if len(name) > MaxGroupNameLen {
		return fmt.Errorf("group name must not exceed %d characters", MaxGroupNameLen)
	}

	if !GroupNamePattern.MatchString(name) {
		return fmt.Errorf("group name can only contain letters (a-z, A-Z), numbers (0-9), hyphens (-) and underscores (_)")
	}

	return nil
}

package service

import (
	"strings"
)

// ResolveZone преобразует параметр room из URL в читаемую метку зоны:
// подчеркивания заменяются пробелами, пустое значение - зона по умолчанию
func ResolveZone(raw, fallback string) string {
	if raw == "" {
		return fallback
	}
	return strings.ReplaceAll(raw, "_", " ")
}

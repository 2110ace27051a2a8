package permkit

import (
	"strings"
)

// Well-known permission keys used by the engine itself.
const (
	// PermissionDelegate gates delegation: a non-owner can only delegate a
	// key if they hold this permission in addition to the key itself.
	PermissionDelegate = "admin.permissions.delegate"

	// PermissionManage gates bundle and override administration for
	// non-owner delegates.
	PermissionManage = "admin.permissions.manage"
)

// ValidateKey checks that a permission key is well formed. A valid key is a
// dot-separated "module.resource.action" triple of lowercase identifiers.
// Keys are exact identifiers: the engine has no wildcard matching.
func ValidateKey(key string) error {
	if key == "" {
		return NewError(ErrInvalidKey, "permission key cannot be empty")
	}

	parts := strings.Split(key, ".")
	if len(parts) != 3 {
		return NewError(ErrInvalidKey, "permission key must be module.resource.action").WithKey(key)
	}

	for _, part := range parts {
		if part == "" {
			return NewError(ErrInvalidKey, "permission key parts cannot be empty").WithKey(key)
		}
		for _, c := range part {
			if !isValidKeyChar(c) {
				return NewError(ErrInvalidKey, "permission key contains invalid character").WithKey(key)
			}
		}
	}

	return nil
}

// ParseKey splits a permission key into its module, resource, and action
// segments, validating it first.
func ParseKey(key string) (module, resource, action string, err error) {
	if err := ValidateKey(key); err != nil {
		return "", "", "", err
	}
	parts := strings.Split(key, ".")
	return parts[0], parts[1], parts[2], nil
}

func isValidKeyChar(c rune) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}

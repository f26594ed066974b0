// Package admin — argon2.go проверяет пароль против argon2id-хеша
// в стандартной PHC-строке: $argon2id$v=19$m=...,t=...,p=...$<salt>$<hash>.
// Хеш генерируется скриптом scripts/generate_hash.go и кладётся
// в ADMIN_PASSWORD_HASH; сам пароль нигде не хранится.
package admin

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// verifyArgon2id сравнивает пароль с PHC-строкой за постоянное время.
func verifyArgon2id(encodedHash, password string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, fmt.Errorf("некорректный формат хеша пароля")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, fmt.Errorf("некорректная версия argon2: %w", err)
	}
	if version != argon2.Version {
		return false, fmt.Errorf("неподдерживаемая версия argon2: %d", version)
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("некорректные параметры argon2: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("некорректная соль: %w", err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("некорректный хеш: %w", err)
	}

	actual := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(expected, actual) == 1, nil
}

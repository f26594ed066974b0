//go:build ignore

// generate_hash.go готовит значение ADMIN_PASSWORD_HASH для .env
// сервиса розыгрышей.
//
// Запуск: go run scripts/generate_hash.go [-m KiB] [-t итерации] [-p потоки] <пароль>
//
// Вывод — готовая строка окружения, её можно вставить в .env как есть.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

const saltLength = 16

func main() {
	memory := flag.Uint("m", 64*1024, "память Argon2id, KiB")
	iterations := flag.Uint("t", 3, "число проходов Argon2id")
	parallelism := flag.Uint("p", 2, "степень параллелизма Argon2id")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Использование: go run scripts/generate_hash.go [флаги] <пароль>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	phc, err := hashPassword(flag.Arg(0), uint32(*memory), uint32(*iterations), uint8(*parallelism))
	if err != nil {
		fmt.Fprintf(os.Stderr, "не удалось сгенерировать хеш: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("ADMIN_PASSWORD_HASH=%s\n", phc)
}

// hashPassword возвращает хеш в PHC-формате, который ожидает
// internal/features/admin при проверке пароля.
func hashPassword(password string, memory, iterations uint32, parallelism uint8) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, 32)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// Package raffle — rng.go содержит детерминированный генератор индексов.
//
// Контракт прозрачности: зная опубликованный после розыгрыша seed и
// totalTickets на момент розыгрыша, любой может переиграть пары
// (seed, counter) с нуля и получить точно тот же список победителей.
package raffle

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strconv"
)

// DeterministicRandomInt выводит воспроизводимый псевдослучайный индекс
// в [0, maxExclusive) из seed и счётчика.
//
// Алгоритм: HMAC-SHA256 с seed в роли ключа и десятичной строкой counter
// в роли сообщения; первые 8 байт дайджеста читаются как big-endian uint64
// и берутся по модулю maxExclusive.
//
// Функция чистая и не имеет побочных эффектов. Заменять её недетерминированным
// источником нельзя — сломается контракт аудита. Смещение модуля на 64-битном
// значении против реальных тиражей (≤ миллионы билетов) пренебрежимо мало.
func DeterministicRandomInt(seed string, counter int64, maxExclusive int64) (int64, error) {
	if maxExclusive <= 0 {
		return 0, fmt.Errorf("maxExclusive должен быть > 0, получено %d", maxExclusive)
	}
	if counter < 0 {
		return 0, fmt.Errorf("counter должен быть >= 0, получено %d", counter)
	}

	mac := hmac.New(sha256.New, []byte(seed))
	mac.Write([]byte(strconv.FormatInt(counter, 10)))
	digest := mac.Sum(nil)

	value := binary.BigEndian.Uint64(digest[:8])
	return int64(value % uint64(maxExclusive)), nil
}

// NewDrawSeed генерирует свежий 256-битный seed в hex-кодировке.
// Seed не должен выводиться из данных запроса: до розыгрыша он непредсказуем,
// после — публикуется для проверки.
func NewDrawSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ошибка генерации seed: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Package common содержит общие утилиты, используемые во всём проекте.
package common

import (
	"fmt"
	"time"
)

// PluralizeCoins возвращает форму названия валюты для числа n.
// Название валюты настраивается (ECONOMY_CURRENCY_NAME), по умолчанию
// "Sweet Coins"; единственное число получается отбрасыванием финальной "s".
func PluralizeCoins(n int64, currency string) string {
	if n == 1 || n == -1 {
		if len(currency) > 1 && currency[len(currency)-1] == 's' {
			return currency[:len(currency)-1]
		}
	}
	return currency
}

// FormatCoins форматирует сумму в читабельную строку.
// Пример: FormatCoins(150, "Sweet Coins") → "150 Sweet Coins"
func FormatCoins(amount int64, currency string) string {
	return fmt.Sprintf("%d %s", amount, PluralizeCoins(amount, currency))
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" в UTC.
// Используется для отображения дат транзакций и розыгрышей.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format("02.01.2006 15:04")
}

// Package members управляет участниками платформы: регистрацией и флагами.
// models.go описывает структуры данных для работы с таблицей members.
package members

import "time"

// Member представляет участника платформы в базе данных.
// Запись создаётся при первой регистрации через POST /api/members.
type Member struct {
	ID           int64     `db:"id" json:"-"`                      // Автоинкрементный ID записи в БД
	UserID       int64     `db:"user_id" json:"userId"`            // Внешний user ID (уникальный)
	Username     string    `db:"username" json:"username"`         // Отображаемое имя
	IsSubscriber bool      `db:"is_subscriber" json:"isSubscriber"` // Статус подписчика (гейт sub-only розыгрышей)
	IsBanned     bool      `db:"is_banned" json:"isBanned"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

package models

import "time"

// Tab — вкладка навигации. Разделы встроены в документ вкладки (jsonb),
// отдельной таблицы у них нет: редактирование раздела — это перезапись
// всего списка sections целиком.
type Tab struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Order     int       `json:"order"`
	AdminOnly bool      `json:"admin_only"`
	Sections  []Section `json:"sections"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Section живёт только внутри Tab и адресуется позицией в списке.
type Section struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

type CreateTabRequest struct {
	Title     string   `json:"title"`
	Sections  []string `json:"sections"`
	AdminOnly bool     `json:"admin_only"`
}

type UpdateTabRequest struct {
	Title     string    `json:"title"`
	Sections  []Section `json:"sections"`
	AdminOnly bool      `json:"admin_only"`
}

type SectionTitleRequest struct {
	Title string `json:"title"`
}

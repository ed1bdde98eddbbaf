package models

import "encoding/json"

// Locale — язык и страна выдачи провайдера (hl/gl).
type Locale struct {
	Language string
	Country  string
}

// RawPlace — запись провайдера мест, не зависящая от конкретного API.
// Поля могут отсутствовать; нормализатор сводит их к Business.
type RawPlace struct {
	PlaceID  string
	DataID   string
	Title    string
	Address  string
	Rating   float64
	Reviews  int
	Type     string
	Types    []string
	Price    string
	Phone    string
	Hours    string
	Website  string
	Position int

	// Lat/Lng заданы только при HasCoordinates.
	HasCoordinates bool
	Lat            float64
	Lng            float64

	// Links — дополнительные ссылки карточки (соцсети, заказ, меню...).
	Links map[string]string

	// Заполняются только в ответе на Details.
	Photos      []string
	ReviewItems []json.RawMessage
}

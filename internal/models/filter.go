package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TriState — необязательный булев фильтр: «не важно», «должно быть», «не должно быть».
type TriState int8

const (
	Unset TriState = iota
	Include
	Exclude
)

// TriStateOf переводит nullable bool в TriState.
func TriStateOf(v *bool) TriState {
	switch {
	case v == nil:
		return Unset
	case *v:
		return Include
	default:
		return Exclude
	}
}

// Match проверяет значение признака против фильтра.
func (t TriState) Match(present bool) bool {
	switch t {
	case Include:
		return present
	case Exclude:
		return !present
	default:
		return true
	}
}

func (t TriState) String() string {
	switch t {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return "unset"
	}
}

// UnmarshalJSON принимает true/false/null; отсутствующее поле остаётся Unset.
func (t *TriState) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		*t = Unset
		return nil
	}

	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("tri-state must be boolean or null: %w", err)
	}

	*t = TriStateOf(&v)
	return nil
}

// MarshalJSON — обратное преобразование: Unset -> null.
func (t TriState) MarshalJSON() ([]byte, error) {
	switch t {
	case Include:
		return []byte("true"), nil
	case Exclude:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// SearchFilter — входные параметры поиска.
// Limit == 0 означает «по умолчанию из конфигурации».
type SearchFilter struct {
	Region       string   `json:"region"`
	Niche        string   `json:"niche"`
	HasWebsite   TriState `json:"hasWebsite"`
	HasFacebook  TriState `json:"hasFacebook"`
	HasInstagram TriState `json:"hasInstagram"`
	HasIfood     TriState `json:"hasIfood"`
	Limit        int      `json:"limit"`
}

// models содержит доменные сущности business-finder.
// Эти типы используются нормализатором, планировщиком проб, сервисом и транспортом.
package models

// Business — каноническое представление одной строки выдачи поиска.
//
// Особенности:
//   - ID детерминирован (place_id / data_id / UUIDv5 от name+address);
//   - HasWebsite == (Website != "");
//   - HasSocialMedia == хотя бы одно поле SocialMedia заполнено;
//   - WebsiteStatus == StatusUnknown, пока проба не завершилась
//     или если сайта нет вовсе.
type Business struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Address        string              `json:"address"`
	Phone          string              `json:"phone,omitempty"`
	OpeningHours   string              `json:"openingHours,omitempty"`
	Position       int                 `json:"position"`
	Coordinates    *Coordinates        `json:"coordinates,omitempty"`
	Rating         float64             `json:"rating"`
	TotalRatings   int                 `json:"totalRatings"`
	Types          []string            `json:"types"`
	PriceLevel     string              `json:"priceLevel,omitempty"`
	Website        string              `json:"website,omitempty"`
	HasWebsite     bool                `json:"hasWebsite"`
	WebsiteStatus  WebsiteStatus       `json:"websiteStatus"`
	WebsiteInfo    *WebsiteProbeResult `json:"websiteInfo,omitempty"`
	SocialMedia    SocialMedia         `json:"socialMedia"`
	HasSocialMedia bool                `json:"hasSocialMedia"`
}

// NoWebsite — состояние «сайта нет»: статус не пробовался и не будет.
func (b Business) NoWebsite() bool {
	return !b.HasWebsite
}

// ApplyProbe вливает результат пробы в бизнес.
// Для бизнеса без сайта результат игнорируется — статус остаётся unknown.
func (b *Business) ApplyProbe(res WebsiteProbeResult) {
	if !b.HasWebsite {
		return
	}

	b.WebsiteStatus = res.Status
	b.WebsiteInfo = &res
}

// SocialMedia — ссылки на соцсети и площадки заказа.
type SocialMedia struct {
	Facebook  string `json:"facebook,omitempty"`
	Instagram string `json:"instagram,omitempty"`
	Ifood     string `json:"ifood,omitempty"`
}

// Any сообщает, заполнено ли хотя бы одно поле.
func (s SocialMedia) Any() bool {
	return s.Facebook != "" || s.Instagram != "" || s.Ifood != ""
}

// Coordinates — координаты точки из выдачи провайдера.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BusinessDetails — карточка бизнеса с фото и отзывами.
// Reviews отдаются как есть (сырые объекты провайдера).
type BusinessDetails struct {
	Business
	Photos  []string `json:"photos"`
	Reviews []any    `json:"reviews"`
}

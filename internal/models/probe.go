package models

import "time"

// WebsiteStatus — итог оценки сайта.
type WebsiteStatus string

const (
	StatusUnknown           WebsiteStatus = "unknown"
	StatusUpdated           WebsiteStatus = "updated"
	StatusOutdated          WebsiteStatus = "outdated"
	StatusUnderConstruction WebsiteStatus = "under_construction"
	StatusInaccessible      WebsiteStatus = "inaccessible"
	StatusError             WebsiteStatus = "error"
)

// Terminal сообщает, что статус получен пробой (а не «ещё не пробовали»).
func (s WebsiteStatus) Terminal() bool {
	switch s {
	case StatusUpdated, StatusOutdated, StatusUnderConstruction, StatusInaccessible, StatusError:
		return true
	default:
		return false
	}
}

// PageSignals — фиксированный набор сигналов, извлекаемых из отрендеренной страницы.
// Не зависит от движка рендеринга: классификатор работает только с ним.
type PageSignals struct {
	Title          string
	Description    string
	LastModified   string
	HasContactForm bool
	HasPhone       bool
	HasWhatsApp    bool
	HasCurrentYear bool
	HasOldYear     bool
	BodyLength     int
}

// WebsiteProbeResult — результат двухэтапной пробы сайта.
// Поля второго этапа (Title, Features, Analysis...) заполнены только при Accessible.
// Status == error (сбой рендера) всегда идёт с Accessible == false;
// StatusCode при этом сохраняет ответ первого этапа.
type WebsiteProbeResult struct {
	Status       WebsiteStatus    `json:"status"`
	Accessible   bool             `json:"accessible"`
	URL          string           `json:"url"`
	StatusCode   int              `json:"statusCode,omitempty"`
	Title        string           `json:"title,omitempty"`
	Description  string           `json:"description,omitempty"`
	LastModified string           `json:"lastModified,omitempty"`
	Features     *WebsiteFeatures `json:"features,omitempty"`
	Analysis     *WebsiteAnalysis `json:"analysis,omitempty"`
	Error        string           `json:"error,omitempty"`
	CheckedAt    time.Time        `json:"checkedAt"`
}

// WebsiteFeatures — признаки «живого» сайта.
type WebsiteFeatures struct {
	HasContactForm bool `json:"hasContactForm"`
	HasPhone       bool `json:"hasPhone"`
	HasWhatsApp    bool `json:"hasWhatsApp"`
}

// WebsiteAnalysis — признаки свежести контента.
type WebsiteAnalysis struct {
	HasCurrentYear bool `json:"hasCurrentYear"`
	HasOldYear     bool `json:"hasOldYear"`
	BodyLength     int  `json:"bodyLength"`
}

// WithSignals заполняет поля второго этапа из сигналов страницы.
func (r *WebsiteProbeResult) WithSignals(s PageSignals) {
	r.Title = s.Title
	r.Description = s.Description
	r.LastModified = s.LastModified
	r.Features = &WebsiteFeatures{
		HasContactForm: s.HasContactForm,
		HasPhone:       s.HasPhone,
		HasWhatsApp:    s.HasWhatsApp,
	}
	r.Analysis = &WebsiteAnalysis{
		HasCurrentYear: s.HasCurrentYear,
		HasOldYear:     s.HasOldYear,
		BodyLength:     s.BodyLength,
	}
}

package serpapi

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/pribylovaa/go-business-finder/internal/models"
)

// searchResponse — ответ engine=google_maps (type=search).
type searchResponse struct {
	Error        string       `json:"error"`
	LocalResults []localPlace `json:"local_results"`
	// Для однозначного запроса SerpAPI отдаёт сразу карточку.
	PlaceResults *localPlace `json:"place_results"`
}

// detailsResponse — ответ engine=google_maps (type=place).
type detailsResponse struct {
	Error        string            `json:"error"`
	PlaceResults *localPlace       `json:"place_results"`
	PlaceInfo    *localPlace       `json:"place_info"`
	Reviews      []json.RawMessage `json:"reviews"`
}

type gps struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type image struct {
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail"`
	Image     string `json:"image"`
}

type userReviews struct {
	MostRelevant []json.RawMessage `json:"most_relevant"`
}

type localPlace struct {
	Position       int               `json:"position"`
	Title          string            `json:"title"`
	PlaceID        string            `json:"place_id"`
	DataID         string            `json:"data_id"`
	GPSCoordinates *gps              `json:"gps_coordinates"`
	Rating         float64           `json:"rating"`
	Reviews        int               `json:"reviews"`
	Price          string            `json:"price"`
	Type           string            `json:"type"`
	Types          []string          `json:"types"`
	Address        string            `json:"address"`
	Hours          json.RawMessage   `json:"hours"`
	Phone          string            `json:"phone"`
	Website        string            `json:"website"`
	OrderOnline    string            `json:"order_online"`
	Menu           json.RawMessage   `json:"menu"`
	Links          map[string]any    `json:"links"`
	Images         []image           `json:"images"`
	Photos         []json.RawMessage `json:"photos"`
	UserReviews    *userReviews      `json:"user_reviews"`
}

// toRaw переводит запись SerpAPI в провайдеро-независимый RawPlace.
func (p localPlace) toRaw() models.RawPlace {
	raw := models.RawPlace{
		PlaceID:  p.PlaceID,
		DataID:   p.DataID,
		Title:    p.Title,
		Address:  p.Address,
		Rating:   p.Rating,
		Reviews:  p.Reviews,
		Type:     p.Type,
		Types:    p.Types,
		Price:    p.Price,
		Phone:    p.Phone,
		Hours:    hoursText(p.Hours),
		Website:  p.Website,
		Position: p.Position,
		Links:    p.links(),
	}

	if p.GPSCoordinates != nil {
		raw.HasCoordinates = true
		raw.Lat = p.GPSCoordinates.Latitude
		raw.Lng = p.GPSCoordinates.Longitude
	}

	return raw
}

// links собирает строковые ссылки карточки в одну карту.
func (p localPlace) links() map[string]string {
	out := make(map[string]string, len(p.Links)+2)

	for k, v := range p.Links {
		if s, ok := v.(string); ok && s != "" {
			out[k] = s
		}
	}

	if p.OrderOnline != "" {
		out["order_online"] = p.OrderOnline
	}

	var menu string
	if json.Unmarshal(p.Menu, &menu) == nil && menu != "" {
		out["menu"] = menu
	} else {
		var m struct {
			Link string `json:"link"`
		}
		if json.Unmarshal(p.Menu, &m) == nil && m.Link != "" {
			out["menu"] = m.Link
		}
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

// photoURLs — ссылки на фото из images или photos.
func (p localPlace) photoURLs() []string {
	out := make([]string, 0, len(p.Images)+len(p.Photos))

	for _, im := range p.Images {
		switch {
		case im.Image != "":
			out = append(out, im.Image)
		case im.Thumbnail != "":
			out = append(out, im.Thumbnail)
		}
	}

	for _, raw := range p.Photos {
		var s string
		if json.Unmarshal(raw, &s) == nil && s != "" {
			out = append(out, s)
			continue
		}
		var im image
		if json.Unmarshal(raw, &im) == nil {
			switch {
			case im.Image != "":
				out = append(out, im.Image)
			case im.Thumbnail != "":
				out = append(out, im.Thumbnail)
			}
		}
	}

	return out
}

// hoursText — hours бывает строкой («Aberto ⋅ Fecha às 20:00»)
// или объектом по дням недели; объект сворачиваем в «день: часы; ...».
func hoursText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}

	var byDay map[string]string
	if json.Unmarshal(raw, &byDay) == nil && len(byDay) > 0 {
		days := make([]string, 0, len(byDay))
		for d := range byDay {
			days = append(days, d)
		}
		sort.Strings(days)

		parts := make([]string, 0, len(days))
		for _, d := range days {
			parts = append(parts, d+": "+byDay[d])
		}
		return strings.Join(parts, "; ")
	}

	return ""
}

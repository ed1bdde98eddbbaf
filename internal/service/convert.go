package service

import (
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-business-finder/internal/models"
)

// idNamespace — пространство имён UUIDv5 для мест без id провайдера.
var idNamespace = uuid.MustParse("6f1c2a4e-8d3b-5e7a-9c41-2b7d0e9f3a15")

// socialDomains — домены платформ; совпадение — подстрока без учёта регистра.
var socialDomains = struct {
	facebook, instagram, ifood []string
}{
	facebook:  []string{"facebook.com", "fb.com"},
	instagram: []string{"instagram.com", "instagr.am"},
	ifood:     []string{"ifood.com.br", "ifood.com"},
}

// normalize доводит запись провайдера до инвариантов Business:
//   - ID детерминирован: place_id, иначе data_id, иначе UUIDv5(name \x00 address);
//   - Rating/TotalRatings >= 0;
//   - Website — только абсолютный http(s) URL, иначе отсутствует;
//   - HasWebsite/HasSocialMedia согласованы с полями;
//   - WebsiteStatus = unknown.
//
// Чистая функция, не падает.
func normalize(raw models.RawPlace) models.Business {
	name := strings.TrimSpace(raw.Title)
	address := strings.TrimSpace(raw.Address)

	b := models.Business{
		ID:            businessID(raw.PlaceID, raw.DataID, name, address),
		Name:          name,
		Address:       address,
		Phone:         strings.TrimSpace(raw.Phone),
		OpeningHours:  strings.TrimSpace(raw.Hours),
		Position:      raw.Position,
		Rating:        max(raw.Rating, 0),
		TotalRatings:  max(raw.Reviews, 0),
		Types:         uniqueTypes(raw.Type, raw.Types),
		PriceLevel:    strings.TrimSpace(raw.Price),
		Website:       absoluteHTTP(raw.Website),
		WebsiteStatus: models.StatusUnknown,
		SocialMedia:   extractSocial(raw.Links),
	}

	if raw.HasCoordinates {
		b.Coordinates = &models.Coordinates{Latitude: raw.Lat, Longitude: raw.Lng}
	}

	b.HasWebsite = b.Website != ""
	b.HasSocialMedia = b.SocialMedia.Any()

	return b
}

func businessID(placeID, dataID, name, address string) string {
	if id := strings.TrimSpace(placeID); id != "" {
		return id
	}
	if id := strings.TrimSpace(dataID); id != "" {
		return id
	}

	return uuid.NewSHA1(idNamespace, []byte(name+"\x00"+address)).String()
}

// extractSocial сканирует все ссылки в порядке ключей; первая подходящая
// ссылка на платформу выигрывает.
func extractSocial(links map[string]string) models.SocialMedia {
	var sm models.SocialMedia
	if len(links) == 0 {
		return sm
	}

	keys := make([]string, 0, len(links))
	for k := range links {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		link := absoluteHTTP(links[k])
		if link == "" {
			continue
		}

		lower := strings.ToLower(link)
		if sm.Facebook == "" && containsAny(lower, socialDomains.facebook) {
			sm.Facebook = link
		}
		if sm.Instagram == "" && containsAny(lower, socialDomains.instagram) {
			sm.Instagram = link
		}
		if sm.Ifood == "" && containsAny(lower, socialDomains.ifood) {
			sm.Ifood = link
		}
	}

	return sm
}

// absoluteHTTP возвращает s, если это абсолютный http(s) URL с хостом, иначе "".
func absoluteHTTP(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return ""
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return s
	default:
		return ""
	}
}

func uniqueTypes(primary string, types []string) []string {
	out := make([]string, 0, len(types)+1)
	seen := make(map[string]struct{}, len(types)+1)

	for _, t := range append([]string{primary}, types...) {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}

	return false
}

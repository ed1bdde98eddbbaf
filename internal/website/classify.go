package website

import (
	"strings"

	"github.com/pribylovaa/go-business-finder/internal/models"
)

// minBodyLength — страница короче считается заглушкой.
const minBodyLength = 1000

var constructionMarkers = []string{"em construção", "coming soon"}

// Classify — чистая функция PageSignals -> WebsiteStatus.
// Правила проверяются по порядку, срабатывает первое:
//  1. тело короче minBodyLength -> outdated;
//  2. нет текущего года, но есть один из двух прошлых -> outdated;
//  3. title содержит маркер «в разработке» -> under_construction;
//  4. иначе -> updated.
func Classify(s models.PageSignals) models.WebsiteStatus {
	if s.BodyLength < minBodyLength {
		return models.StatusOutdated
	}

	if !s.HasCurrentYear && s.HasOldYear {
		return models.StatusOutdated
	}

	title := strings.ToLower(s.Title)
	for _, m := range constructionMarkers {
		if strings.Contains(title, m) {
			return models.StatusUnderConstruction
		}
	}

	return models.StatusUpdated
}

package website

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/pribylovaa/go-business-finder/internal/models"
)

// Селекторы сигналов страницы.
const (
	selContactForm = `form[action*="contact"], form[action*="contato"], input[type="email"]`
	selPhone       = `a[href^="tel:"], .phone, .telefone`
	selWhatsApp    = `a[href*="whatsapp"], a[href*="wa.me"]`
	selDescription = `meta[name="description"]`
)

// Snapshot — снимок отрендеренной страницы.
// Сигналы считаются из него в Go, поэтому классификатор и тесты
// не зависят от движка рендеринга.
type Snapshot struct {
	Title        string
	LastModified string
	HTML         string
	BodyHTML     string
}

// ParseSignals извлекает фиксированный набор сигналов из снимка.
// now задаёт «текущий год» для проверок свежести.
func ParseSignals(snap Snapshot, now time.Time) (models.PageSignals, error) {
	const op = "website/signals/ParseSignals"

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return models.PageSignals{}, fmt.Errorf("%s: %w", op, err)
	}

	title := strings.TrimSpace(snap.Title)
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	desc, _ := doc.Find(selDescription).First().Attr("content")

	year := now.Year()
	body := snap.BodyHTML

	return models.PageSignals{
		Title:          title,
		Description:    strings.TrimSpace(desc),
		LastModified:   snap.LastModified,
		HasContactForm: doc.Find(selContactForm).Length() > 0,
		HasPhone:       doc.Find(selPhone).Length() > 0,
		HasWhatsApp:    doc.Find(selWhatsApp).Length() > 0,
		HasCurrentYear: strings.Contains(body, strconv.Itoa(year)),
		HasOldYear: strings.Contains(body, strconv.Itoa(year-1)) ||
			strings.Contains(body, strconv.Itoa(year-2)),
		BodyLength: utf8.RuneCountInString(body),
	}, nil
}

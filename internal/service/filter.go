package service

import "github.com/pribylovaa/go-business-finder/internal/models"

// applyFilter — логическое И по заданным tri-state признакам.
// Unset ничего не ограничивает; порядок сохраняется.
func applyFilter(list []models.Business, f models.SearchFilter) []models.Business {
	out := make([]models.Business, 0, len(list))

	for _, b := range list {
		if !f.HasWebsite.Match(b.HasWebsite) {
			continue
		}
		if !f.HasFacebook.Match(b.SocialMedia.Facebook != "") {
			continue
		}
		if !f.HasInstagram.Match(b.SocialMedia.Instagram != "") {
			continue
		}
		if !f.HasIfood.Match(b.SocialMedia.Ifood != "") {
			continue
		}
		out = append(out, b)
	}

	return out
}

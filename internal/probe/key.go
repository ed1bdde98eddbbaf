package probe

import (
	"net/url"
	"strings"
)

var defaultPorts = map[string]string{"http": "80", "https": "443"}

// Key — ключ дедупликации проб: scheme://host/path без порта по умолчанию,
// query, fragment и завершающего слэша. Регистр сводится только у scheme
// и host: путь на сервере чувствителен к регистру (/Loja и /loja — разные
// страницы). Нераспознанный URL становится ключом сам по себе (после trim).
func Key(raw string) string {
	raw = strings.TrimSpace(raw)

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" && port != defaultPorts[scheme] {
		host += ":" + port
	}

	path := strings.TrimRight(u.EscapedPath(), "/")

	return scheme + "://" + host + path
}

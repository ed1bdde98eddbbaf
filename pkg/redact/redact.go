// redact — маскирование секретов перед логированием и отдачей ошибок.
// Сохраняет полезный для отладки контекст (хост, путь, прочие параметры).
package redact

import (
	"errors"
	"net/url"
	"strings"
)

// Token возвращает литерал-заглушку для секрета в логах.
func Token() string { return "[REDACTED_TOKEN]" }

// URL заменяет значения параметров запроса keys на Token().
// Неразбираемая строка возвращается целиком замаскированной ("***").
//
//	"https://serpapi.com/search.json?q=x&api_key=abc" -> "https://serpapi.com/search.json?api_key=%5BREDACTED_TOKEN%5D&q=x"
func URL(raw string, keys ...string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}

	q := u.Query()
	changed := false
	for _, k := range keys {
		if q.Has(k) {
			q.Set(k, Token())
			changed = true
		}
	}
	if !changed {
		return raw
	}

	u.RawQuery = q.Encode()
	return u.String()
}

// Error маскирует параметры keys в URL внутри *url.Error (цепочка сохраняется)
// и, на всякий случай, сами значения secrets в тексте ошибки.
func Error(err error, keys []string, secrets ...string) error {
	if err == nil {
		return nil
	}

	var ue *url.Error
	if errors.As(err, &ue) {
		cp := *ue
		cp.URL = URL(ue.URL, keys...)
		if ue == err {
			err = &cp
		} else {
			err = &wrapped{msg: strings.Replace(err.Error(), ue.Error(), cp.Error(), 1), err: err}
		}
	}

	msg := err.Error()
	masked := msg
	for _, s := range secrets {
		if s != "" {
			masked = strings.ReplaceAll(masked, s, Token())
		}
	}
	if masked == msg {
		return err
	}

	return &wrapped{msg: masked, err: err}
}

// wrapped — ошибка с переписанным текстом и исходной цепочкой для errors.Is/As.
type wrapped struct {
	msg string
	err error
}

func (w *wrapped) Error() string { return w.msg }
func (w *wrapped) Unwrap() error { return w.err }

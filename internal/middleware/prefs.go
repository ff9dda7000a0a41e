package middleware

import (
	"net/http"

	"github.com/diewo77/go-materiel/i18n"
)

// Prefs picks the response language (query > cookie > Accept-Language) and
// stores it in the request context for i18n.LangFromContext. A language
// passed in the query is remembered in a cookie for ~30 days.
func Prefs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := ""
		if c, err := r.Cookie("lang"); err == nil {
			lang = c.Value
		}
		if ql := r.URL.Query().Get("lang"); ql != "" && supported(ql) {
			lang = ql
			http.SetCookie(w, &http.Cookie{Name: "lang", Value: lang, Path: "/", MaxAge: 86400 * 30, HttpOnly: true})
		}
		if !supported(lang) {
			lang = i18n.DetectLanguage(r.Header.Get("Accept-Language"))
		}
		next.ServeHTTP(w, r.WithContext(i18n.WithLang(r.Context(), lang)))
	})
}

func supported(lang string) bool { return lang == "fr" || lang == "en" }

// Package i18n translates API message codes. French is the default language.
package i18n

import (
	"context"
	"strings"
)

type ctxKey struct{}

const DefaultLang = "fr"

var messages = map[string]map[string]string{
	"fr": {
		"welcome":               "Bienvenue sur l'API de gestion de matériel médical",
		"required":              "Requis",
		"invalid_value":         "Valeur invalide",
		"must_be_positive":      "Doit être positif",
		"invalid_date_range":    "La date de début doit précéder la date de fin",
		"invalid_json":          "Corps de requête JSON invalide",
		"invalid_id":            "Identifiant invalide",
		"unauthenticated":       "Identifiants invalides ou session expirée",
		"invalid_credentials":   "Nom d'utilisateur ou mot de passe incorrect",
		"forbidden":             "Action réservée aux administrateurs",
		"not_found":             "Ressource introuvable",
		"invalid_state":         "Opération impossible dans l'état actuel",
		"validation_failed":     "Données invalides",
		"conflict":              "La ressource existe déjà",
		"internal_error":        "Erreur interne",
		"cart_empty":            "Le panier est vide ou non trouvé.",
		"cart_submitted":        "Demandes soumises et e-mail envoyé avec succès !",
		"cart_submitted_nomail": "Demandes soumises, l'e-mail de notification n'a pas pu être envoyé.",
	},
	"en": {
		"welcome":               "Welcome to the medical equipment management API",
		"required":              "Required",
		"invalid_value":         "Invalid value",
		"must_be_positive":      "Must be positive",
		"invalid_date_range":    "Start date must not be after end date",
		"invalid_json":          "Invalid JSON body",
		"invalid_id":            "Invalid identifier",
		"unauthenticated":       "Could not validate credentials",
		"invalid_credentials":   "Incorrect username or password",
		"forbidden":             "Administrator privileges required",
		"not_found":             "Resource not found",
		"invalid_state":         "Operation not allowed in the current state",
		"validation_failed":     "Validation failed",
		"conflict":              "Resource already exists",
		"internal_error":        "Internal error",
		"cart_empty":            "The cart is empty or was not found.",
		"cart_submitted":        "Requests submitted and e-mail sent.",
		"cart_submitted_nomail": "Requests submitted; the notification e-mail could not be sent.",
	},
}

// T returns the translation of code in lang, falling back to French, then to code itself.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// DetectLanguage picks "en" when the first Accept-Language tag is English, "fr" otherwise.
func DetectLanguage(acceptLanguage string) string {
	first, _, _ := strings.Cut(acceptLanguage, ",")
	first, _, _ = strings.Cut(first, ";")
	tag := strings.ToLower(strings.TrimSpace(first))
	if tag == "en" || strings.HasPrefix(tag, "en-") {
		return "en"
	}
	return DefaultLang
}

// WithLang stores the response language in context.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFromContext returns the language stored by WithLang, or the default.
func LangFromContext(ctx context.Context) string {
	if l, ok := ctx.Value(ctxKey{}).(string); ok && l != "" {
		return l
	}
	return DefaultLang
}

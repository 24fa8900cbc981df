package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocaleEN = "en"
	LocaleFR = "fr"

	defaultLocale = LocaleFR
)

var messages = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":            "invalid request",
		"error.unauthorized":           "authentication required",
		"error.forbidden":              "permission denied",
		"error.not_found":              "resource not found",
		"error.internal":               "internal error",
		"error.rate_limited":           "too many attempts, retry in %d seconds",
		"error.rate_limit_unavailable": "rate limiter unavailable",
		"error.login_too_many":         "too many login attempts, retry in %d seconds",
		"error.login_failed":           "invalid email or password",
		"error.captcha_invalid":        "invalid captcha",
		"error.auth_header_missing":    "authorization header missing",
		"error.auth_header_invalid":    "authorization header invalid",
		"error.token_invalid":          "invalid or expired token",
		"error.jwt_secret_missing":     "authentication is not configured",
		"error.account_disabled":       "account disabled",
		"error.document_not_found":     "document not found",
		"error.status_invalid":         "status not allowed",
	},
	LocaleFR: {
		"error.bad_request":            "requête invalide",
		"error.unauthorized":           "authentification requise",
		"error.forbidden":              "accès refusé",
		"error.not_found":              "ressource introuvable",
		"error.internal":               "erreur interne",
		"error.rate_limited":           "trop de tentatives, réessayez dans %d secondes",
		"error.rate_limit_unavailable": "limiteur de débit indisponible",
		"error.login_too_many":         "trop de tentatives de connexion, réessayez dans %d secondes",
		"error.login_failed":           "email ou mot de passe invalide",
		"error.captcha_invalid":        "captcha invalide",
		"error.auth_header_missing":    "en-tête d'autorisation manquant",
		"error.auth_header_invalid":    "en-tête d'autorisation invalide",
		"error.token_invalid":          "jeton invalide ou expiré",
		"error.jwt_secret_missing":     "l'authentification n'est pas configurée",
		"error.account_disabled":       "compte désactivé",
		"error.document_not_found":     "document introuvable",
		"error.status_invalid":         "statut non autorisé",
	},
}

// ResolveLocale picks the response locale from the Accept-Language header.
func ResolveLocale(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return defaultLocale
	}
	header := strings.ToLower(strings.TrimSpace(c.GetHeader("Accept-Language")))
	if strings.HasPrefix(header, LocaleEN) {
		return LocaleEN
	}
	if strings.HasPrefix(header, LocaleFR) {
		return LocaleFR
	}
	return defaultLocale
}

// T returns the message for a key, falling back to the key itself.
func T(locale, key string) string {
	if byLocale, ok := messages[locale]; ok {
		if msg, ok := byLocale[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[defaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf formats a localized message with arguments.
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

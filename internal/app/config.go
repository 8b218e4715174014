package app

import (
	"strings"

	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/middleware"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/pkg/logger"
	"github.com/DouglasRibeiroPOA/soul-mirror-palm-reading-service/internal/utils"
)

type Config struct {
	SiteBaseURL    string
	DefaultModule  string
	AllowedOrigins []string
	IntroCTAHTML   string
	Cookies        middleware.CookieConfig
}

func LoadConfig(log *logger.Logger) Config {
	siteBaseURL := utils.GetEnv("SITE_BASE_URL", "http://localhost:8080", log)
	defaultModule := utils.GetEnv("DEFAULT_MODULE", "palm-reading", log)
	origins := utils.GetEnv("ALLOWED_ORIGINS", "http://localhost:3000", log)
	cookieDomain := utils.GetEnv("COOKIE_DOMAIN", "", log)
	cookieSecure := strings.EqualFold(utils.GetEnv("COOKIE_SECURE", "false", log), "true")
	introCTA := utils.GetEnv("INTRO_CTA_HTML", "", log)

	return Config{
		SiteBaseURL:    siteBaseURL,
		DefaultModule:  defaultModule,
		AllowedOrigins: splitOrigins(origins),
		IntroCTAHTML:   introCTA,
		Cookies: middleware.CookieConfig{
			Domain: cookieDomain,
			Secure: cookieSecure,
		},
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

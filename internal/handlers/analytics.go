package handlers

import "lifescientific.com/web/internal/platform/config"

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	PlausibleDomain  string // e.g. lifescientific.com
	GA4MeasurementID string // e.g. G-XXXXXXXXXX
	Debug            bool
}

// Enabled reports whether any analytics snippet should render.
func (a Analytics) Enabled() bool {
	return a.PlausibleDomain != "" || a.GA4MeasurementID != ""
}

// AnalyticsFromConfig builds Analytics from the site configuration.
func AnalyticsFromConfig(site config.SiteConfig) Analytics {
	return Analytics{
		PlausibleDomain:  site.PlausibleDomain,
		GA4MeasurementID: site.GAMeasurementID,
		Debug:            site.DevMode,
	}
}

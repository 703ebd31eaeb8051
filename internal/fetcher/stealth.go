package fetcher

import (
	"fmt"
	"strings"

	"github.com/IshaanNene/NewsPulse/internal/config"
)

// StealthConfig configures fingerprint spoofing for browser pages.
type StealthConfig struct {
	// Viewport dimensions reported to the page
	ViewportWidth  int
	ViewportHeight int

	// Window size for browser launch, "w,h"
	WindowSize string

	// Language override, e.g. "ko-KR"
	Language string

	// Platform override, e.g. "Win32"
	Platform string

	// Hardware concurrency (number of CPU cores to report)
	HardwareConcurrency int

	// DeviceMemory (GB of RAM to report)
	DeviceMemory int
}

// NewStealthConfig derives a desktop fingerprint from the browser settings.
func NewStealthConfig(cfg config.BrowserConfig) *StealthConfig {
	w, h := cfg.WindowWidth, cfg.WindowHeight
	if w <= 0 || h <= 0 {
		w, h = 1920, 1080
	}
	lang := cfg.Locale
	if lang == "" {
		lang = "ko-KR"
	}
	return &StealthConfig{
		ViewportWidth:       w,
		ViewportHeight:      h,
		WindowSize:          fmt.Sprintf("%d,%d", w, h),
		Language:            lang,
		Platform:            "Win32",
		HardwareConcurrency: 8,
		DeviceMemory:        8,
	}
}

// primaryLanguage returns "ko" for "ko-KR".
func (sc *StealthConfig) primaryLanguage() string {
	if i := strings.IndexByte(sc.Language, '-'); i > 0 {
		return sc.Language[:i]
	}
	return sc.Language
}

// StealthJS returns JavaScript evaluated on every new document before page
// scripts run. It complements go-rod/stealth with locale specific values.
func (sc *StealthConfig) StealthJS() string {
	return fmt.Sprintf(`
Object.defineProperty(navigator, 'platform', { get: () => '%s' });
Object.defineProperty(navigator, 'language', { get: () => '%s' });
Object.defineProperty(navigator, 'languages', { get: () => ['%s', '%s'] });
Object.defineProperty(navigator, 'hardwareConcurrency', { get: () => %d });
Object.defineProperty(navigator, 'deviceMemory', { get: () => %d });
Object.defineProperty(navigator, 'webdriver', { get: () => false });
`, sc.Platform, sc.Language, sc.Language, sc.primaryLanguage(), sc.HardwareConcurrency, sc.DeviceMemory)
}

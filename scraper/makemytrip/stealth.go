package makemytrip

import (
	"math/rand"
	"os"
	"os/exec"
)

// fingerprint is the per-session browser identity. Every date gets a fresh
// browser with one of these, so anti-bot state never carries across sessions.
type fingerprint struct {
	UserAgent string
	Width     int64
	Height    int64
	Locale    string
	Timezone  string
}

var fingerprints = []fingerprint{
	{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		Width: 1920, Height: 1080,
		Locale: "en-IN", Timezone: "Asia/Kolkata",
	},
	{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Width: 1536, Height: 864,
		Locale: "en-IN", Timezone: "Asia/Kolkata",
	},
	{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		Width: 1440, Height: 900,
		Locale: "en-IN", Timezone: "Asia/Kolkata",
	},
	{
		UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Width: 1366, Height: 768,
		Locale: "en-IN", Timezone: "Asia/Kolkata",
	},
}

func randomFingerprint() fingerprint {
	return fingerprints[rand.Intn(len(fingerprints))]
}

// stealthInitScript runs before any page script in the session and masks the
// standard automation markers: the webdriver flag, the empty plugin list,
// the missing chrome runtime object and the languages array.
const stealthInitScript = `
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined,
	});
	Object.defineProperty(navigator, 'plugins', {
		get: () => [1, 2, 3, 4, 5],
	});
	Object.defineProperty(navigator, 'languages', {
		get: () => ['en-US', 'en'],
	});
	window.chrome = {
		runtime: {},
	};
`

// findChromeBinary locates a Chrome/Chromium binary.
func findChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

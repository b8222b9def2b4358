// File: internal/browser/browser_test.go
package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/webloop/webloop/internal/config"
)

func TestFlagFromArg(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		arg       string
		wantName  string
		wantValue any
	}{
		{arg: "--disable-notifications", wantName: "disable-notifications", wantValue: true},
		{arg: "disable-notifications", wantName: "disable-notifications", wantValue: true},
		{arg: "--window-size=1280,720", wantName: "window-size", wantValue: "1280,720"},
		{arg: "lang=en-US", wantName: "lang", wantValue: "en-US"},
		{arg: "--proxy-server=http://localhost:8080", wantName: "proxy-server", wantValue: "http://localhost:8080"},
		// Only the first '=' splits; the rest belongs to the value.
		{arg: "--js-flags=--max-old-space-size=512", wantName: "js-flags", wantValue: "--max-old-space-size=512"},
	}

	for _, tc := range testCases {
		t.Run(tc.arg, func(t *testing.T) {
			t.Parallel()
			name, value := flagFromArg(tc.arg)
			assert.Equal(t, tc.wantName, name)
			assert.Equal(t, tc.wantValue, value)
		})
	}
}

func TestBuildAllocatorOptions(t *testing.T) {
	t.Parallel()

	base := buildAllocatorOptions(config.BrowserConfig{})
	headless := buildAllocatorOptions(config.BrowserConfig{Headless: true})
	withArgs := buildAllocatorOptions(config.BrowserConfig{
		Args: []string{"--window-size=1280,720", "disable-notifications"},
	})

	// Headless adds chromedp.Headless and DisableGPU in place of the
	// single headless=false override.
	assert.Equal(t, len(base)+1, len(headless))
	assert.Equal(t, len(base)+2, len(withArgs))
}

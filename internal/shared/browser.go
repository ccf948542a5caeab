package shared

import (
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"
)

var getRuntime = func() string { return runtime.GOOS }

// BlendPageURL returns the web frontend address of the blend identified by code.
func BlendPageURL(webURL, code string) (string, error) {
	if webURL == "" {
		return "", fmt.Errorf("%w: api.web_url is not set", ErrMissingConfig)
	}
	base, err := url.Parse(webURL)
	if err != nil {
		return "", fmt.Errorf("%w: api.web_url: %v", ErrInvalidConfig, err)
	}
	return base.JoinPath("blend", strings.ToUpper(strings.TrimSpace(code))).String(), nil
}

// OpenBrowser opens the default system browser to the specified URL.
//
// Supports macOS, Linux, and Windows platforms.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch rt := getRuntime(); rt {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", rt)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// Utilities for lifting an API session out of a cURL command copied from the browser dev tools.
package shared

import (
	"fmt"
	"net/http"
	"os"
	"regexp"
	"strings"
)

var (
	curlHeaderRe = regexp.MustCompile(`(?:-H|--header)\s+(?:'([^']+)'|"([^"]+)")`)
	curlCookieRe = regexp.MustCompile(`(?:-b|--cookie)\s+(?:'([^']+)'|"([^"]+)")`)
	curlURLRe    = regexp.MustCompile(`https?://[^\s'"]+`)
)

// tokenCookieNames are cookies the web client may carry its bearer token in.
var tokenCookieNames = []string{"token", "access_token", "auth_token"}

// CurlHeaders is the request metadata recovered from a cURL command.
type CurlHeaders struct {
	URL     string
	Headers http.Header
	Cookie  string
}

// ParseCurlFile reads a .sh file containing a cURL command and extracts headers.
func ParseCurlFile(filepath string) (*CurlHeaders, error) {
	content, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}
	return ParseCurlCommand(content)
}

// ParseCurlCommand parses a cURL command string and extracts its URL, headers and cookies.
func ParseCurlCommand(data []byte) (*CurlHeaders, error) {
	cmd := strings.ReplaceAll(string(data), "\\\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\", "")

	parsed := &CurlHeaders{Headers: make(http.Header)}

	for _, m := range curlHeaderRe.FindAllStringSubmatch(cmd, -1) {
		key, value, ok := strings.Cut(firstGroup(m), ":")
		if !ok {
			continue
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if strings.EqualFold(key, "cookie") {
			if parsed.Cookie == "" {
				parsed.Cookie = value
			}
			continue
		}
		parsed.Headers.Add(key, value)
	}

	// -b wins over a Cookie header.
	if m := curlCookieRe.FindStringSubmatch(cmd); m != nil {
		parsed.Cookie = firstGroup(m)
	}

	parsed.URL = curlURLRe.FindString(cmd)

	if len(parsed.Headers) == 0 && parsed.Cookie == "" {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}
	return parsed, nil
}

func firstGroup(m []string) string {
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

// BearerToken returns the session token carried by the request.
//
// The Authorization header is preferred; otherwise a token-like cookie is used.
func (c *CurlHeaders) BearerToken() (string, error) {
	if auth := c.Headers.Get("Authorization"); auth != "" {
		scheme, token, ok := strings.Cut(auth, " ")
		if ok && strings.EqualFold(scheme, "bearer") && strings.TrimSpace(token) != "" {
			return strings.TrimSpace(token), nil
		}
	}

	if c.Cookie != "" {
		cookies, err := http.ParseCookie(c.Cookie)
		if err == nil {
			for _, name := range tokenCookieNames {
				for _, ck := range cookies {
					if ck.Name == name && ck.Value != "" {
						return ck.Value, nil
					}
				}
			}
		}
	}

	return "", fmt.Errorf("%w: no bearer token in curl command", ErrAuthRequired)
}

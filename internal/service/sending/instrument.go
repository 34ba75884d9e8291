package sending

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/ignite/nps-engine/internal/tracking"
)

var hrefPattern = regexp.MustCompile(`href="(https?://[^"]+)"`)

// instrumentHTML rewrites anchor links through the click endpoint and appends
// an open pixel. With no tracking base URL the content passes through as is.
func instrumentHTML(html, baseURL, campaignID, recipientID string) string {
	if baseURL == "" || html == "" {
		return html
	}
	base := strings.TrimRight(baseURL, "/")
	token := tracking.EncodeToken(campaignID, recipientID)

	out := hrefPattern.ReplaceAllStringFunc(html, func(match string) string {
		target := hrefPattern.FindStringSubmatch(match)[1]
		return fmt.Sprintf(`href="%s/track/click/%s?url=%s"`, base, token, url.QueryEscape(target))
	})

	pixel := fmt.Sprintf(`<img src="%s/track/open/%s" width="1" height="1" alt="" style="display:none;"/>`, base, token)
	if idx := strings.LastIndex(strings.ToLower(out), "</body>"); idx >= 0 {
		return out[:idx] + pixel + out[idx:]
	}
	return out + pixel
}

// Package classify recognizes links to the supported platforms and extracts
// each platform's content identifier.
package classify

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/iconidentify/mediakit/internal/domain"
)

// hostStart anchors a host name at the start of the input or after a
// separator so that e.g. "fox.com" is never read as "x.com".
const hostStart = `(?:^|[/.@])`

var (
	// youtubeRegex captures an 11 character video ID after the first v query
	// parameter, an embed-style path, a nested path, or the short-link host.
	// Path alternatives never reach into the query or fragment. The trailing
	// group rejects IDs that continue past 11 characters.
	youtubeRegex = regexp.MustCompile(hostStart +
		`(?:(?i:youtube\.com)/(?:[^\s?#]*\?(?:[^\s#]*?&)??v=|(?:v|e|embed|shorts|live)/|[^/\s?#]+/[^\s?#]+/)` +
		`|(?i:youtube-nocookie\.com)/embed/` +
		`|(?i:youtu\.be)/)` +
		`([A-Za-z0-9_-]{11})(?:[^A-Za-z0-9_-]|$)`)

	tiktokRegex = regexp.MustCompile(hostStart + `(?i:tiktok\.com)/(?:@[\w.-]+/)?video/(\d+)`)

	// twitterRegex accepts both host names of the same site.
	twitterRegex = regexp.MustCompile(hostStart + `(?i:twitter\.com|x\.com)/\w+/status/(\d+)`)

	instagramRegex = regexp.MustCompile(hostStart + `(?i:instagram\.com)/(?:p|reel|tv)/([A-Za-z0-9_-]+)`)
)

type matcher struct {
	platform domain.Platform
	re       *regexp.Regexp
}

// matchers are tried in order; the first match wins.
var matchers = []matcher{
	{domain.PlatformYouTube, youtubeRegex},
	{domain.PlatformTikTok, tiktokRegex},
	{domain.PlatformTwitter, twitterRegex},
	{domain.PlatformInstagram, instagramRegex},
}

// Classify determines which supported platform raw belongs to and extracts
// its identifier. The boolean is false when no platform matches; that is a
// normal outcome, not an error.
func Classify(raw string) (domain.ClassifiedURL, bool) {
	for _, m := range matchers {
		if id, ok := match(m.re, raw); ok {
			return domain.ClassifiedURL{Platform: m.platform, ExternalID: id}, true
		}
	}
	return domain.ClassifiedURL{}, false
}

// ClassifyAs is like Classify but only accepts links of the given platform.
func ClassifyAs(raw string, platform domain.Platform) (domain.ClassifiedURL, bool) {
	for _, m := range matchers {
		if m.platform != platform {
			continue
		}
		if id, ok := match(m.re, raw); ok {
			return domain.ClassifiedURL{Platform: platform, ExternalID: id}, true
		}
	}
	return domain.ClassifiedURL{}, false
}

func match(re *regexp.Regexp, raw string) (string, bool) {
	m := re.FindStringSubmatch(raw)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

// Host returns the registrable domain of raw (e.g. "example.co.uk" for
// "https://www.example.co.uk/x"), or the bare host name when no public
// suffix applies. It returns "" when raw has no recognizable host.
func Host(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}

	base, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return base
}

package domain

// Platform identifies a supported content site.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformTikTok    Platform = "tiktok"
	PlatformTwitter   Platform = "twitter"
	PlatformInstagram Platform = "instagram"
)

// Platforms lists every supported platform in classification order.
var Platforms = []Platform{
	PlatformYouTube,
	PlatformTikTok,
	PlatformTwitter,
	PlatformInstagram,
}

// String returns the string representation of the Platform.
func (p Platform) String() string {
	return string(p)
}

// Valid reports whether p is one of the supported platforms.
func (p Platform) Valid() bool {
	for _, known := range Platforms {
		if p == known {
			return true
		}
	}
	return false
}

// DisplayName returns the human readable site name.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformYouTube:
		return "YouTube"
	case PlatformTikTok:
		return "TikTok"
	case PlatformTwitter:
		return "Twitter/X"
	case PlatformInstagram:
		return "Instagram"
	default:
		return string(p)
	}
}

// ClassifiedURL is the result of recognizing a user supplied link.
type ClassifiedURL struct {
	Platform   Platform `json:"platform"`
	ExternalID string   `json:"externalId"`
}

package scrape

import (
	"regexp"

	"github.com/sells-group/enrich-cli/internal/model"
)

var (
	websiteRe       = regexp.MustCompile(`(?i)https?://(?:www\.)?[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}(?:/[\w\-._~:/?#\[\]@!$&'()*+,;=]*)?`)
	websitePhraseRe = regexp.MustCompile(`(?i)(?:visit us at|official website|our website|find us at)\s*:?\s*(https?://(?:www\.)?[a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)

	socialPatternRes = map[string]*regexp.Regexp{
		model.PlatformLinkedIn:  regexp.MustCompile(`(?i)https?://(?:www\.)?linkedin\.com/[a-zA-Z0-9\-_/]+`),
		model.PlatformFacebook:  regexp.MustCompile(`(?i)https?://(?:www\.)?facebook\.com/[a-zA-Z0-9\-_/]+`),
		model.PlatformTwitter:   regexp.MustCompile(`(?i)https?://(?:www\.)?(?:twitter|x)\.com/[a-zA-Z0-9\-_/]+`),
		model.PlatformInstagram: regexp.MustCompile(`(?i)https?://(?:www\.)?instagram\.com/[a-zA-Z0-9\-_/]+`),
		model.PlatformYouTube:   regexp.MustCompile(`(?i)https?://(?:www\.)?youtube\.com/[a-zA-Z0-9\-_/]+`),
	}
)

// ExtractLinks pulls a website and social profile URLs out of raw text
// (page HTML or a description blob). An explicit phrase like "visit us at"
// takes precedence over the first generic URL.
func ExtractLinks(text string) (string, model.Socials) {
	socials := model.Socials{}
	if text == "" {
		return "", socials
	}

	var website string
	if m := websitePhraseRe.FindStringSubmatch(text); len(m) > 1 {
		website = m[1]
	}
	if website == "" {
		if all := websiteRe.FindAllString(text, -1); len(all) > 0 {
			for _, candidate := range all {
				if isSocialURL(candidate) {
					continue
				}
				website = candidate
				break
			}
		}
	}

	for platform, re := range socialPatternRes {
		if m := re.FindString(text); m != "" {
			socials[platform] = m
		}
	}

	return website, socials
}

// isSocialURL reports whether a URL points at a known social platform, so
// generic website extraction can skip it.
func isSocialURL(link string) bool {
	for _, re := range socialPatternRes {
		if re.MatchString(link) {
			return true
		}
	}
	return false
}

package scrape

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/enrich-cli/internal/model"
)

// descriptionUnavailable is the sentinel returned when no description of any
// kind could be extracted from the page.
const descriptionUnavailable = "not available"

var (
	titleRe     = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	paragraphRe = regexp.MustCompile(`(?is)<p[^>]*>(.*?)</p>`)
	anchorRe    = regexp.MustCompile(`(?is)<a[^>]+href=["']([^"']+)["']`)
	metaTagRe   = regexp.MustCompile(`(?is)<meta[^>]+>`)
	contentRe   = regexp.MustCompile(`(?is)content=["']([^"']*)["']`)

	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s().-]{9,20}\d`)
	digitRe = regexp.MustCompile(`\D`)
)

// platformDomains maps a social platform key to the hosts that identify it
// in a link. Matching is on the parsed host, not a substring, so domains
// like box.com or wix.com never read as x.com.
var platformDomains = map[string][]string{
	model.PlatformLinkedIn:  {"linkedin.com"},
	model.PlatformFacebook:  {"facebook.com"},
	model.PlatformTwitter:   {"twitter.com", "x.com"},
	model.PlatformInstagram: {"instagram.com"},
	model.PlatformYouTube:   {"youtube.com"},
}

// platformForHost returns the platform a link's host belongs to, or "".
func platformForHost(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return ""
	}
	for platform, domains := range platformDomains {
		for _, d := range domains {
			if host == d || strings.HasSuffix(host, "."+d) {
				return platform
			}
		}
	}
	return ""
}

// extractTitle pulls the <title> text from HTML.
func extractTitle(html string) string {
	m := titleRe.FindStringSubmatch(html)
	if len(m) > 1 {
		return strings.TrimSpace(stripHTML(m[1]))
	}
	return ""
}

// metaContent returns the content attribute of the first meta tag whose
// name or property equals key, handling either attribute order.
func metaContent(html, key string) string {
	needle := `"` + strings.ToLower(key) + `"`
	needleSingle := `'` + strings.ToLower(key) + `'`
	for _, tag := range metaTagRe.FindAllString(html, -1) {
		lower := strings.ToLower(tag)
		if !strings.Contains(lower, "name="+needle) && !strings.Contains(lower, "property="+needle) &&
			!strings.Contains(lower, "name="+needleSingle) && !strings.Contains(lower, "property="+needleSingle) {
			continue
		}
		if m := contentRe.FindStringSubmatch(tag); len(m) > 1 {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// ExtractDescription resolves a page description through an ordered fallback
// chain: meta description, Open Graph description, first paragraph of
// plausible length, page title, then a literal "not available" sentinel.
func ExtractDescription(html string) string {
	if d := metaContent(html, "description"); d != "" {
		return d
	}
	if d := metaContent(html, "og:description"); d != "" {
		return d
	}
	for _, m := range paragraphRe.FindAllStringSubmatch(html, -1) {
		p := strings.TrimSpace(stripHTML(m[1]))
		if len(p) >= 100 && len(p) <= 300 {
			return p
		}
	}
	if t := extractTitle(html); t != "" {
		return t
	}
	return descriptionUnavailable
}

// ExtractPhones returns phone-number candidates from page text, keeping only
// strings whose digit count falls in [11,13] after normalization.
func ExtractPhones(text string) []string {
	var phones []string
	seen := make(map[string]struct{})
	for _, m := range phoneRe.FindAllString(text, -1) {
		digits := digitRe.ReplaceAllString(m, "")
		if len(digits) < 11 || len(digits) > 13 {
			continue
		}
		candidate := strings.TrimSpace(m)
		if _, ok := seen[candidate]; ok {
			continue
		}
		seen[candidate] = struct{}{}
		phones = append(phones, candidate)
	}
	return phones
}

// ExtractEmails returns deduplicated email addresses found in page text,
// preserving first-seen order.
func ExtractEmails(text string) []string {
	var emails []string
	seen := make(map[string]struct{})
	for _, m := range emailRe.FindAllString(text, -1) {
		lower := strings.ToLower(m)
		if _, ok := seen[lower]; ok {
			continue
		}
		seen[lower] = struct{}{}
		emails = append(emails, m)
	}
	return emails
}

// ExtractSocials scans anchor hrefs and meta tag contents for known social
// platform domains. The first match per platform wins.
func ExtractSocials(html string) model.Socials {
	socials := model.Socials{}

	record := func(link string) {
		platform := platformForHost(link)
		if platform == "" {
			return
		}
		if _, taken := socials[platform]; taken {
			return
		}
		socials[platform] = link
	}

	for _, m := range anchorRe.FindAllStringSubmatch(html, -1) {
		record(m[1])
	}
	for _, tag := range metaTagRe.FindAllString(html, -1) {
		if m := contentRe.FindStringSubmatch(tag); len(m) > 1 && strings.Contains(m[1], "http") {
			record(m[1])
		}
	}

	return socials
}

// stripHTML removes script/style blocks, strips tags, decodes common
// entities, and collapses whitespace.
func stripHTML(html string) string {
	for _, tag := range []string{"script", "style", "nav", "footer"} {
		re := regexp.MustCompile(`(?is)<` + tag + `[^>]*>.*?</` + tag + `>`)
		html = re.ReplaceAllString(html, "")
	}

	tagRe := regexp.MustCompile(`<[^>]+>`)
	html = tagRe.ReplaceAllString(html, " ")

	r := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	html = r.Replace(html)

	spaceRe := regexp.MustCompile(`[ \t]+`)
	html = spaceRe.ReplaceAllString(html, " ")

	return strings.TrimSpace(html)
}

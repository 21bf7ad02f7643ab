package discovery

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/enrich-cli/internal/model"
	"github.com/sells-group/enrich-cli/internal/searchclient"
)

// socialSearchDomains maps each platform to the domain used in its
// site-scoped search query.
var socialSearchDomains = map[string]string{
	model.PlatformLinkedIn:  "linkedin.com",
	model.PlatformFacebook:  "facebook.com",
	model.PlatformTwitter:   "twitter.com",
	model.PlatformInstagram: "instagram.com",
}

// SocialDiscovery resolves social profiles via per-platform site-scoped
// searches. It runs independently of the website waterfall: its results are
// merged into the social map whether or not a website was found.
type SocialDiscovery struct {
	client *searchclient.Client
}

// NewSocialDiscovery creates a social profile discovery pass.
func NewSocialDiscovery(client *searchclient.Client) *SocialDiscovery {
	return &SocialDiscovery{client: client}
}

// Discover searches each platform in parallel and keeps the first result
// whose URL actually belongs to the platform searched. Per-platform search
// failures are logged and skipped.
func (d *SocialDiscovery) Discover(ctx context.Context, companyName string) model.Socials {
	var mu sync.Mutex
	socials := model.Socials{}

	g, ctx := errgroup.WithContext(ctx)
	for platform, domain := range socialSearchDomains {
		g.Go(func() error {
			links, err := d.client.SearchDuckDuckGo(ctx, "site:"+domain+" "+companyName)
			if err != nil {
				zap.L().Debug("discovery: social search failed",
					zap.String("platform", platform),
					zap.Error(err),
				)
				return nil
			}
			for _, link := range links {
				if !strings.Contains(strings.ToLower(link), domain) {
					continue
				}
				mu.Lock()
				socials[platform] = link
				mu.Unlock()
				break
			}
			return nil
		})
	}
	_ = g.Wait()

	return socials
}

// directorySearchDomains are the business directories probed by
// DirectoryDiscovery.
var directorySearchDomains = []string{"yelp.com", "yellowpages.com", "bbb.org"}

// DirectoryDiscovery finds a company's business-directory listings. The
// links are auxiliary: useful for employee discovery and manual review,
// never promoted to the website field.
type DirectoryDiscovery struct {
	client *searchclient.Client
}

// NewDirectoryDiscovery creates a directory listing discovery pass.
func NewDirectoryDiscovery(client *searchclient.Client) *DirectoryDiscovery {
	return &DirectoryDiscovery{client: client}
}

// Discover returns one listing URL per directory, keyed by directory domain.
func (d *DirectoryDiscovery) Discover(ctx context.Context, companyName string) map[string]string {
	var mu sync.Mutex
	listings := make(map[string]string)

	g, ctx := errgroup.WithContext(ctx)
	for _, domain := range directorySearchDomains {
		g.Go(func() error {
			links, err := d.client.SearchDuckDuckGo(ctx, "site:"+domain+" "+companyName)
			if err != nil {
				zap.L().Debug("discovery: directory search failed",
					zap.String("directory", domain),
					zap.Error(err),
				)
				return nil
			}
			for _, link := range links {
				if !strings.Contains(strings.ToLower(link), domain) {
					continue
				}
				mu.Lock()
				listings[domain] = link
				mu.Unlock()
				break
			}
			return nil
		})
	}
	_ = g.Wait()

	return listings
}

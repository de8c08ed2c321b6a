
package classifier

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type Kind string

const (
	KindApp      Kind = "app"
	KindCategory Kind = "category"
	KindOther    Kind = "other"
)

type Classification struct {
	Kind   Kind              `json:"kind"`
	Reason map[string]string `json:"reason,omitempty"`
}

var (
	ldAppRe      = regexp.MustCompile(`"@type"\s*:\s*"(?:SoftwareApplication|WebApplication)"`)
	categoryRe   = regexp.MustCompile(`/categories/[a-z0-9-]+`)
	appCardSel   = `[data-controller="app-card"], [data-app-card-handle-value]`
	pricingSel   = `[data-pricing-plan], .app-details-pricing-plan-card, .pricing-plan-card`
	developerSel = `a[href*="/partners/"]`
)

// Classify tells app detail pages from category listings. A page URL, when
// known, is the strongest signal; markup signals decide otherwise.
func Classify(markup, pageURL string) Classification {
	reason := map[string]string{}

	if u, err := url.Parse(pageURL); err == nil && u.Path != "" {
		if categoryRe.MatchString(u.Path) {
			reason["url"] = "category path"
			return Classification{Kind: KindCategory, Reason: reason}
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Classification{Kind: KindOther}
	}

	// listing signals
	if n := doc.Find(appCardSel).Length(); n > 1 {
		reason["cards"] = "multiple app cards"
		return Classification{Kind: KindCategory, Reason: reason}
	}

	// detail signals
	if ldAppRe.MatchString(markup) {
		reason["ld+json"] = "software application metadata"
	}
	if doc.Find(pricingSel).Length() > 0 {
		reason["pricing"] = "pricing plan cards"
	}
	if doc.Find(developerSel).Length() > 0 {
		reason["developer"] = "partner link"
	}
	if doc.Find("#app-details").Length() > 0 {
		reason["details"] = "app details section"
	}
	if len(reason) > 0 {
		return Classification{Kind: KindApp, Reason: reason}
	}

	if doc.Find(appCardSel).Length() == 1 {
		reason["cards"] = "single app card"
		return Classification{Kind: KindCategory, Reason: reason}
	}
	return Classification{Kind: KindOther, Reason: reason}
}

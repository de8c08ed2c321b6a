
package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
)

const pricingCardSelector = `[data-pricing-plan], .app-details-pricing-plan-card, .pricing-plan-card`

// summary templates, tried in order against the page text.
var summaryRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)free plan available`),
	regexp.MustCompile(`(?i)free to install`),
	regexp.MustCompile(`(?i)from\s+\$\s?[\d,]+(?:\.\d{1,2})?\s*/\s*(?:month|year|mo|yr)`),
	regexp.MustCompile(`(?i)free trial available`),
}

var summaryPriceRe = regexp.MustCompile(`(?i)\$\s?([\d,]+(?:\.\d{1,2})?)\s*/\s*(month|year|mo|yr)\b`)

var planNameRe = regexp.MustCompile(`(?i)^((?:free|basic|starter|standard|professional|pro|plus|premium|advanced|growth|business|enterprise|unlimited|essential|lite|silver|gold|platinum|custom|development)(?:\s+(?:plan|plus|pro))?)\b`)

var priceRe = regexp.MustCompile(`(?i)\$\s?([\d,]+(?:\.\d{1,2})?)\s*(?:/|per)\s*(month|mo|year|yr|week|one[- ]time)`)

var discountRe = regexp.MustCompile(`(?i)(save\s+\d+%|\d+%\s+off)`)

var trialRe = regexp.MustCompile(`(?i)(\d+[- ]day\s+free\s+trial|free\s+trial)`)

var freeWordRe = regexp.MustCompile(`(?i)\bfree\b`)

func pricingSummary(doc *goquery.Document) string {
	text := pageText(doc)
	for i, re := range summaryRes {
		m := re.FindString(text)
		if m == "" {
			continue
		}
		if i == 2 {
			return "From " + clean(m[len("from"):])
		}
		return strings.ToUpper(m[:1]) + strings.ToLower(m[1:])
	}
	if m := summaryPriceRe.FindStringSubmatch(text); m != nil {
		if f, err := parsePrice(m[1]); err == nil {
			return fmt.Sprintf("$%s/%s", formatPrice(f), normalizePeriod(m[2]))
		}
	}
	for _, part := range textParts(doc.Find("body")) {
		if strings.EqualFold(part, "free") {
			return "Free"
		}
	}

	plans := pricingPlans(doc)
	if len(plans) == 0 {
		return ""
	}
	first := plans[0]
	if first.Price == 0 {
		return "Free"
	}
	if first.Period == "" {
		return "$" + formatPrice(first.Price)
	}
	return fmt.Sprintf("$%s/%s", formatPrice(first.Price), first.Period)
}

func formatPrice(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parsePrice(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

func normalizePeriod(p string) string {
	switch p = strings.ToLower(p); p {
	case "mo":
		return "month"
	case "yr":
		return "year"
	case "one time", "one-time":
		return "one-time"
	}
	return p
}

func pricingPlans(doc *goquery.Document) []models.PricingPlan {
	out := []models.PricingPlan{}
	doc.Find(pricingCardSelector).Each(func(_ int, card *goquery.Selection) {
		if plan, ok := pricingPlan(card); ok {
			out = append(out, plan)
		}
	})
	return out
}

// pricingPlan reads one pricing card. Cards with no readable text are
// skipped.
func pricingPlan(card *goquery.Selection) (models.PricingPlan, bool) {
	parts := textParts(card)
	text := strings.Join(parts, " ")
	if text == "" {
		return models.PricingPlan{}, false
	}
	plan := models.PricingPlan{Features: []string{}}

	if m := planNameRe.FindStringSubmatch(text); m != nil {
		plan.Name = m[1]
	} else {
		plan.Name = strings.Fields(text)[0]
	}

	matches := priceRe.FindAllStringSubmatch(text, -1)
	if len(matches) > 0 {
		if f, err := parsePrice(matches[0][1]); err == nil {
			plan.Price = f
		}
		plan.Period = normalizePeriod(matches[0][2])
		if plan.Period != "year" {
			for _, m := range matches[1:] {
				if normalizePeriod(m[2]) != "year" {
					continue
				}
				if f, err := parsePrice(m[1]); err == nil {
					plan.YearlyPrice = ptr(f)
				}
				break
			}
		}
	}
	if m := discountRe.FindString(text); m != "" {
		plan.Discount = ptr(m)
	}
	if m := trialRe.FindString(text); m != "" {
		plan.Trial = ptr(m)
	}

	if items := card.Find("li"); items.Length() > 0 {
		items.Each(func(_ int, s *goquery.Selection) {
			if t := nodeText(s); t != "" {
				plan.Features = append(plan.Features, t)
			}
		})
		return plan, true
	}

	// no list: whatever text is left after the name and price lines
	for _, part := range parts {
		if part == plan.Name || isPriceLine(part) {
			continue
		}
		plan.Features = append(plan.Features, part)
	}
	return plan, true
}

func isPriceLine(s string) bool {
	if priceRe.MatchString(s) || discountRe.MatchString(s) || trialRe.MatchString(s) {
		return true
	}
	return strings.EqualFold(s, "free") || (freeWordRe.MatchString(s) && len(strings.Fields(s)) <= 2)
}

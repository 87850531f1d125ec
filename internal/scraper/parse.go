package scraper

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/Veraticus/duecard/internal/common"
	"github.com/Veraticus/duecard/internal/model"
	"github.com/shopspring/decimal"
)

// Selectors are the CSS selectors used to pick offers out of the listing page. Card
// selects one element per offer; the others are evaluated inside it.
type Selectors struct {
	Card        string `mapstructure:"card"`
	Name        string `mapstructure:"name"`
	Bank        string `mapstructure:"bank"`
	Rate        string `mapstructure:"rate"`
	Description string `mapstructure:"description"`
	AnnualFee   string `mapstructure:"annual_fee"`
	MinIncome   string `mapstructure:"min_income"`
	Network     string `mapstructure:"network"`
	Category    string `mapstructure:"category"`
	Link        string `mapstructure:"link"`
}

// DefaultSelectors returns the selectors for the default listing page.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:        "[data-product-type='credit-card']",
		Name:        "[data-field='name']",
		Bank:        "[data-field='provider']",
		Rate:        "[data-field='cashback']",
		Description: "[data-field='highlights']",
		AnnualFee:   "[data-field='annual-fee']",
		MinIncome:   "[data-field='min-income']",
		Network:     "[data-field='network']",
		Category:    "[data-field='category']",
		Link:        "a[data-field='apply']",
	}
}

// Validate checks that the required selectors are set.
func (s Selectors) Validate() error {
	if strings.TrimSpace(s.Card) == "" || strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: card and name selectors are required", common.ErrInvalidConfig)
	}
	return nil
}

// ParseOffers extracts offers from an HTML listing. Elements without a name are
// skipped. Relative links are resolved against base when it is non-nil.
func ParseOffers(r io.Reader, sel Selectors, base *url.URL) ([]model.ScrapedOffer, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	var offers []model.ScrapedOffer
	doc.Find(sel.Card).Each(func(_ int, card *goquery.Selection) {
		name := text(card, sel.Name)
		if name == "" {
			return
		}

		offer := model.ScrapedOffer{
			Name:        name,
			Bank:        text(card, sel.Bank),
			Rate:        text(card, sel.Rate),
			Description: text(card, sel.Description),
			Network:     text(card, sel.Network),
			AnnualFee:   ParseAmount(text(card, sel.AnnualFee)),
			MinIncome:   ParseAmount(text(card, sel.MinIncome)),
			URL:         link(card, sel.Link, base),
		}
		if sel.Category != "" {
			card.Find(sel.Category).Each(func(_ int, c *goquery.Selection) {
				if category := clean(c.Text()); category != "" {
					offer.Categories = append(offer.Categories, category)
				}
			})
		}

		offers = append(offers, offer)
	})

	return offers, nil
}

func text(card *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return clean(card.Find(selector).First().Text())
}

func link(card *goquery.Selection, selector string, base *url.URL) string {
	if selector == "" {
		return ""
	}
	href, ok := card.Find(selector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return ""
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return ref.String()
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	amountPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
	freeWords     = []string{"free", "waived", "免費", "豁免"}
)

// ParseAmount reads a money amount such as "HK$1,800" or "$150,000 p.a.". Wording
// that marks a fee as waived yields zero. Text without a number yields an invalid value.
func ParseAmount(s string) decimal.NullDecimal {
	lower := strings.ToLower(s)
	if match := amountPattern.FindString(lower); match != "" {
		if d, err := decimal.NewFromString(strings.ReplaceAll(match, ",", "")); err == nil {
			return decimal.NewNullDecimal(d)
		}
	}
	for _, word := range freeWords {
		if strings.Contains(lower, word) {
			return decimal.NewNullDecimal(decimal.Zero)
		}
	}
	return decimal.NullDecimal{}
}

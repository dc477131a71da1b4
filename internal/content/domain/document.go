package domain

import (
	"context"
	"strings"

	"github.com/smallbiznis/breakeven/internal/theme"
)

type GenerationMethod string

const (
	GenerationAI       GenerationMethod = "ai"
	GenerationFallback GenerationMethod = "fallback"
)

// Input is what the synthesizer knows about the business.
type Input struct {
	Name         string
	BusinessType theme.BusinessType
	Area         string
	Description  string
	ColorTheme   string
}

type Hero struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

type About struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type Service struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceHint   string `json:"price_hint,omitempty"`
}

type Contact struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CTA         string `json:"cta"`
}

type SEO struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

type Trust struct {
	Highlights []string `json:"highlights"`
}

type Local struct {
	AreaBlurb string   `json:"area_blurb"`
	Landmarks []string `json:"landmarks,omitempty"`
}

// Document is the page copy for one site. Stored documents are immutable.
type Document struct {
	Hero             Hero             `json:"hero"`
	About            About            `json:"about"`
	ServicesTitle    string           `json:"services_title"`
	Services         []Service        `json:"services"`
	Contact          Contact          `json:"contact"`
	FooterText       string           `json:"footer_text"`
	SEO              SEO              `json:"seo"`
	Trust            *Trust           `json:"trust,omitempty"`
	Local            *Local           `json:"local,omitempty"`
	GenerationMethod GenerationMethod `json:"generation_method"`
}

// MissingRequired lists the required fields that are blank.
func (d Document) MissingRequired() []string {
	var missing []string
	if blank(d.Hero.Title) {
		missing = append(missing, "hero.title")
	}
	if blank(d.Hero.Subtitle) {
		missing = append(missing, "hero.subtitle")
	}
	if blank(d.About.Body) {
		missing = append(missing, "about.body")
	}
	named := 0
	for _, s := range d.Services {
		if !blank(s.Name) {
			named++
		}
	}
	if named == 0 {
		missing = append(missing, "services")
	}
	if blank(d.Contact.CTA) {
		missing = append(missing, "contact.cta")
	}
	return missing
}

// WithDefaults fills blank optional fields from fb. Services without a name
// are dropped.
func (d Document) WithDefaults(fb Document) Document {
	out := d
	out.Hero.Title = pick(d.Hero.Title, fb.Hero.Title)
	out.Hero.Subtitle = pick(d.Hero.Subtitle, fb.Hero.Subtitle)
	out.About.Title = pick(d.About.Title, fb.About.Title)
	out.About.Body = pick(d.About.Body, fb.About.Body)
	out.ServicesTitle = pick(d.ServicesTitle, fb.ServicesTitle)
	out.Contact.Title = pick(d.Contact.Title, fb.Contact.Title)
	out.Contact.Description = pick(d.Contact.Description, fb.Contact.Description)
	out.Contact.CTA = pick(d.Contact.CTA, fb.Contact.CTA)
	out.FooterText = pick(d.FooterText, fb.FooterText)
	out.SEO.Title = pick(d.SEO.Title, fb.SEO.Title)
	out.SEO.Description = pick(d.SEO.Description, fb.SEO.Description)

	services := make([]Service, 0, len(d.Services))
	for _, s := range d.Services {
		if blank(s.Name) {
			continue
		}
		s.Name = strings.TrimSpace(s.Name)
		services = append(services, s)
	}
	if len(services) == 0 {
		services = append(services, fb.Services...)
	}
	out.Services = services

	keywords := make([]string, 0, len(d.SEO.Keywords))
	for _, k := range d.SEO.Keywords {
		if !blank(k) {
			keywords = append(keywords, strings.TrimSpace(k))
		}
	}
	if len(keywords) == 0 {
		keywords = append(keywords, fb.SEO.Keywords...)
	}
	if len(keywords) > 6 {
		keywords = keywords[:6]
	}
	out.SEO.Keywords = keywords

	if out.Trust == nil && fb.Trust != nil {
		t := *fb.Trust
		out.Trust = &t
	}
	if out.Local == nil && fb.Local != nil {
		l := *fb.Local
		out.Local = &l
	}
	return out
}

// Summary is the short view returned after a publish.
type Summary struct {
	HeroTitle        string           `json:"hero_title"`
	ServiceCount     int              `json:"service_count"`
	GenerationMethod GenerationMethod `json:"generation_method"`
}

func (d Document) Summary() Summary {
	return Summary{
		HeroTitle:        d.Hero.Title,
		ServiceCount:     len(d.Services),
		GenerationMethod: d.GenerationMethod,
	}
}

// Synthesizer turns a business description into page copy. It never fails.
type Synthesizer interface {
	Generate(ctx context.Context, in Input) Document
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func pick(v, fallback string) string {
	if blank(v) {
		return fallback
	}
	return strings.TrimSpace(v)
}

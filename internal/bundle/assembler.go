// Package bundle renders the deployable static site for one business.
package bundle

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/smallbiznis/breakeven/internal/content"
	contentdomain "github.com/smallbiznis/breakeven/internal/content/domain"
	"github.com/smallbiznis/breakeven/internal/sitetemplate"
	"github.com/smallbiznis/breakeven/internal/theme"
	"github.com/smallbiznis/breakeven/pkg/oid"
)

const (
	IndexFile  = "index.html"
	ConfigFile = sitetemplate.FunctionsDir + "/config.json"

	websiteSource = "breakeven"

	// apiFunctions routes page calls through the bundle's serverless
	// functions. apiSite calls the backend's site callbacks directly and
	// leaves visit recording to the server that rendered the page.
	apiFunctions = "functions"
	apiSite      = "site"
)

var placeholder = regexp.MustCompile(`\{\{([a-z0-9_]+)\}\}`)

// Profile is the public face of the business as declared by its owner.
type Profile struct {
	WebsiteName  string
	BusinessType theme.BusinessType
	Area         string
	Description  string
	ColorTheme   string
	Phone        string
	Email        string
	Address      string
	Hours        string
	LogoURL      string
	CustomCSS    string
}

type Input struct {
	Document   contentdomain.Document
	Profile    Profile
	OwnerID    oid.ID
	SiteID     oid.ID
	SiteName   string
	BackendURL string
	Year       int
}

type Assembler struct {
	store *sitetemplate.Store
}

func New(store *sitetemplate.Store) *Assembler {
	if store == nil {
		store = sitetemplate.Default()
	}
	return &Assembler{store: store}
}

// Assemble renders every template file plus the generated function config.
func (a *Assembler) Assemble(in Input) (Files, error) {
	templates, err := a.store.Files()
	if err != nil {
		return nil, fmt.Errorf("read templates: %w", err)
	}

	values := buildValues(in, apiFunctions)
	files := make(Files, len(templates)+1)
	for _, f := range templates {
		if f.Verbatim() {
			files[f.Path] = append([]byte(nil), f.Body...)
			continue
		}
		files[f.Path] = []byte(substitute(string(f.Body), values, isHTML(f.Path)))
	}

	cfg, err := functionConfig(in)
	if err != nil {
		return nil, err
	}
	files[ConfigFile] = cfg
	return files, nil
}

// Page renders only index.html for serving from the backend itself. The
// page posts to the site callbacks under BackendURL and sends no visit
// beacon.
func (a *Assembler) Page(in Input) ([]byte, error) {
	body, err := a.store.Read(IndexFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", IndexFile, err)
	}
	return []byte(substitute(string(body), buildValues(in, apiSite), true)), nil
}

type value struct {
	text string
	raw  bool
}

// substitute replaces placeholders in a single pass. Replacement text is
// never scanned again and unknown names become empty.
func substitute(body string, values map[string]value, escape bool) string {
	return placeholder.ReplaceAllStringFunc(body, func(m string) string {
		name := m[2 : len(m)-2]
		v, ok := values[name]
		if !ok {
			return ""
		}
		if escape && !v.raw {
			return html.EscapeString(v.text)
		}
		return v.text
	})
}

func isHTML(path string) bool {
	return strings.HasSuffix(path, ".html")
}

func buildValues(in Input, apiMode string) map[string]value {
	p := in.Profile
	doc := in.Document.WithDefaults(content.Fallback(contentdomain.Input{
		Name:         p.WebsiteName,
		BusinessType: p.BusinessType,
		Area:         p.Area,
		Description:  p.Description,
	}))
	scheme := theme.Resolve(p.ColorTheme)

	description := doc.SEO.Description
	if description == "" {
		description = doc.Hero.Subtitle
	}

	text := func(s string) value { return value{text: strings.TrimSpace(s)} }
	return map[string]value{
		"title":               text(p.WebsiteName),
		"description":         text(description),
		"phone":               text(p.Phone),
		"email":               text(p.Email),
		"address":             text(p.Address),
		"hours":               text(p.Hours),
		"business_id":         text(in.OwnerID.String()),
		"site_id":             text(in.SiteID.String()),
		"backend_url":         text(strings.TrimRight(in.BackendURL, "/")),
		"website_source":      text(websiteSource),
		"api_mode":            text(apiMode),
		"hero_title":          text(doc.Hero.Title),
		"hero_subtitle":       text(doc.Hero.Subtitle),
		"about_title":         text(doc.About.Title),
		"about_body":          text(doc.About.Body),
		"services_title":      text(doc.ServicesTitle),
		"services":            {text: renderServices(doc.Services), raw: true},
		"contact_title":       text(doc.Contact.Title),
		"contact_description": text(doc.Contact.Description),
		"contact_cta":         text(doc.Contact.CTA),
		"footer_text":         text(doc.FooterText),
		"keywords":            text(strings.Join(doc.SEO.Keywords, ", ")),
		"logo_url":            text(p.LogoURL),
		"primary_color":       text(scheme.Primary),
		"secondary_color":     text(scheme.Secondary),
		"background_color":    text(scheme.Background),
		"custom_css":          {text: strings.ReplaceAll(p.CustomCSS, "<", ""), raw: true},
		"year":                text(strconv.Itoa(in.Year)),
	}
}

func renderServices(services []contentdomain.Service) string {
	var b strings.Builder
	for i, s := range services {
		if i > 0 {
			b.WriteString("\n          ")
		}
		b.WriteString(`<article class="card"><h3>`)
		b.WriteString(html.EscapeString(s.Name))
		b.WriteString(`</h3><p>`)
		b.WriteString(html.EscapeString(s.Description))
		b.WriteString(`</p>`)
		if hint := strings.TrimSpace(s.PriceHint); hint != "" {
			b.WriteString(`<p class="price">`)
			b.WriteString(html.EscapeString(hint))
			b.WriteString(`</p>`)
		}
		b.WriteString(`</article>`)
	}
	return b.String()
}

type functionSettings struct {
	BackendURL string `json:"backend_url"`
	SiteID     string `json:"site_id"`
	BusinessID string `json:"business_id"`
}

func functionConfig(in Input) ([]byte, error) {
	body, err := json.MarshalIndent(functionSettings{
		BackendURL: strings.TrimRight(in.BackendURL, "/"),
		SiteID:     in.SiteID.String(),
		BusinessID: in.OwnerID.String(),
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode function config: %w", err)
	}
	return append(body, '\n'), nil
}

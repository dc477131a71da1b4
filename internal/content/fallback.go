package content

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/breakeven/internal/content/domain"
	"github.com/smallbiznis/breakeven/internal/theme"
)

type fallbackCopy struct {
	subtitle      string
	aboutTitle    string
	about         string
	servicesTitle string
	services      []domain.Service
	contactTitle  string
	contactDesc   string
	cta           string
	footer        string
	keywords      []string
	highlights    []string
}

// Fallback builds page copy from fixed tables. The hero title is always
// "Welcome to {name}".
func Fallback(in domain.Input) domain.Document {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = "Our Business"
	}
	area := strings.TrimSpace(in.Area)
	if area == "" {
		area = "your area"
	}
	c := fallbackTable(in.BusinessType, name, area)

	about := c.about
	if desc := strings.TrimSpace(in.Description); desc != "" {
		about = about + " " + desc
	}

	return domain.Document{
		Hero: domain.Hero{
			Title:    "Welcome to " + name,
			Subtitle: c.subtitle,
		},
		About:         domain.About{Title: c.aboutTitle, Body: about},
		ServicesTitle: c.servicesTitle,
		Services:      c.services,
		Contact: domain.Contact{
			Title:       c.contactTitle,
			Description: c.contactDesc,
			CTA:         c.cta,
		},
		FooterText: c.footer,
		SEO: domain.SEO{
			Title:       fmt.Sprintf("%s | %s in %s", name, in.BusinessType.Label(), area),
			Description: c.subtitle + ". " + c.contactDesc + ".",
			Keywords:    c.keywords,
		},
		Trust: &domain.Trust{Highlights: c.highlights},
		Local: &domain.Local{
			AreaBlurb: fmt.Sprintf("Proudly serving customers in and around %s.", area),
		},
		GenerationMethod: domain.GenerationFallback,
	}
}

func fallbackTable(bt theme.BusinessType, name, area string) fallbackCopy {
	switch bt {
	case theme.BusinessFoodStore:
		return fallbackCopy{
			subtitle:      "Fresh, delicious food in " + area,
			aboutTitle:    "About Us",
			about:         fmt.Sprintf("%s serves freshly made food to neighbours and visitors in %s.", name, area),
			servicesTitle: "Our Menu",
			services: []domain.Service{
				{Name: "Fresh Bakes", Description: "Made every morning with quality ingredients"},
				{Name: "Daily Specials", Description: "Seasonal dishes that change through the week"},
				{Name: "Catering & Orders", Description: "Trays and custom orders for your events"},
			},
			contactTitle: "Visit Us Today",
			contactDesc:  "Come and taste the best food in town",
			cta:          "Order Now",
			footer:       fmt.Sprintf("%s. Serving delicious food in %s.", name, area),
			keywords:     []string{"food", "restaurant", strings.ToLower(area), "fresh", "local"},
			highlights:   []string{"Fresh ingredients", "Friendly service", "Locally loved"},
		}
	case theme.BusinessFashion:
		return fallbackCopy{
			subtitle:      "Style and elegance in " + area,
			aboutTitle:    "About Our Store",
			about:         fmt.Sprintf("%s is your fashion destination in %s.", name, area),
			servicesTitle: "Our Collections",
			services: []domain.Service{
				{Name: "Women's Fashion", Description: "The latest trends for women"},
				{Name: "Men's Fashion", Description: "Stylish clothing for men"},
				{Name: "Accessories", Description: "Complete your look"},
			},
			contactTitle: "Shop With Us",
			contactDesc:  "Discover your new favourite style today",
			cta:          "Shop Now",
			footer:       fmt.Sprintf("%s. Fashion excellence in %s.", name, area),
			keywords:     []string{"fashion", "clothing", strings.ToLower(area), "style", "trends"},
			highlights:   []string{"New arrivals weekly", "Personal styling", "Easy exchanges"},
		}
	case theme.BusinessProfessional:
		return fallbackCopy{
			subtitle:      "Expert solutions in " + area,
			aboutTitle:    "About Our Services",
			about:         fmt.Sprintf("%s provides professional services to clients in %s.", name, area),
			servicesTitle: "Our Expertise",
			services: []domain.Service{
				{Name: "Consultation", Description: "Expert advice for your needs"},
				{Name: "Implementation", Description: "Professional execution of solutions"},
				{Name: "Support", Description: "Ongoing support and maintenance"},
			},
			contactTitle: "Contact Us",
			contactDesc:  "Get in touch for professional service",
			cta:          "Book a Consultation",
			footer:       fmt.Sprintf("%s. Professional excellence in %s.", name, area),
			keywords:     []string{"professional", "services", strings.ToLower(area), "expert", "consulting"},
			highlights:   []string{"Experienced team", "Clear pricing", "Fast turnaround"},
		}
	case theme.BusinessBeauty:
		return fallbackCopy{
			subtitle:      "Relax and refresh in " + area,
			aboutTitle:    "About Our Studio",
			about:         fmt.Sprintf("%s offers beauty and wellness treatments in %s.", name, area),
			servicesTitle: "Our Treatments",
			services: []domain.Service{
				{Name: "Hair Styling", Description: "Cuts, colour and styling by experienced stylists"},
				{Name: "Skin Care", Description: "Facials and treatments for healthy skin"},
				{Name: "Nails", Description: "Manicures and pedicures in a calm setting"},
			},
			contactTitle: "Book Your Visit",
			contactDesc:  "Treat yourself to some time for you",
			cta:          "Book Now",
			footer:       fmt.Sprintf("%s. Beauty and wellness in %s.", name, area),
			keywords:     []string{"beauty", "salon", strings.ToLower(area), "spa", "wellness"},
			highlights:   []string{"Certified stylists", "Hygienic studio", "Walk-ins welcome"},
		}
	case theme.BusinessTechnology:
		return fallbackCopy{
			subtitle:      "Reliable technology services in " + area,
			aboutTitle:    "About Us",
			about:         fmt.Sprintf("%s helps people and businesses in %s get the most from their technology.", name, area),
			servicesTitle: "What We Do",
			services: []domain.Service{
				{Name: "Repairs", Description: "Fast fixes for phones, laptops and desktops"},
				{Name: "IT Support", Description: "Setup and support for homes and offices"},
				{Name: "Consulting", Description: "Advice on the right tools for your needs"},
			},
			contactTitle: "Talk to an Expert",
			contactDesc:  "Tell us what you need and we will help",
			cta:          "Get Support",
			footer:       fmt.Sprintf("%s. Technology services in %s.", name, area),
			keywords:     []string{"technology", "repair", strings.ToLower(area), "it support", "computers"},
			highlights:   []string{"Same-day service", "Certified technicians", "Warranty on repairs"},
		}
	default:
		return fallbackCopy{
			subtitle:      "Quality " + bt.Label() + " services in " + area,
			aboutTitle:    "About Us",
			about:         fmt.Sprintf("At %s, we provide excellent service to customers in %s.", name, area),
			servicesTitle: "Our Services",
			services: []domain.Service{
				{Name: "Personal Service", Description: "Attention to detail on every visit"},
				{Name: "Quality Work", Description: "Service you can trust"},
				{Name: "Customer Support", Description: "We are here when you need us"},
			},
			contactTitle: "Get In Touch",
			contactDesc:  "Contact us to learn more about our services",
			cta:          "Contact Us",
			footer:       fmt.Sprintf("%s. Serving %s with excellence.", name, area),
			keywords:     []string{"local business", strings.ToLower(area), "quality", "service"},
			highlights:   []string{"Trusted locally", "Friendly team", "Fair prices"},
		}
	}
}

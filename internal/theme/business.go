package theme

import "strings"

type BusinessType string

const (
	BusinessFoodStore    BusinessType = "food_store"
	BusinessFashion      BusinessType = "fashion"
	BusinessProfessional BusinessType = "professional"
	BusinessBeauty       BusinessType = "beauty"
	BusinessTechnology   BusinessType = "technology"
	BusinessGeneral      BusinessType = "general"
)

var businessTypes = []BusinessType{
	BusinessFoodStore,
	BusinessFashion,
	BusinessProfessional,
	BusinessBeauty,
	BusinessTechnology,
	BusinessGeneral,
}

// ParseBusinessType accepts the closed set only.
func ParseBusinessType(raw string) (BusinessType, bool) {
	v := BusinessType(strings.ToLower(strings.TrimSpace(raw)))
	for _, bt := range businessTypes {
		if bt == v {
			return v, true
		}
	}
	return "", false
}

func (b BusinessType) Label() string {
	switch b {
	case BusinessFoodStore:
		return "food & beverage"
	case BusinessFashion:
		return "fashion"
	case BusinessProfessional:
		return "professional services"
	case BusinessBeauty:
		return "beauty & wellness"
	case BusinessTechnology:
		return "technology"
	default:
		return "local business"
	}
}

// BusinessTheme is the preset shown to owners when they pick a business type.
type BusinessTheme struct {
	Type         BusinessType `json:"type"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	ColorSchemes []string     `json:"color_schemes"`
	Features     []string     `json:"features"`
}

var businessThemes = []BusinessTheme{
	{
		Type:         BusinessFoodStore,
		Name:         "Food & Restaurant",
		Description:  "Warm layouts for bakeries, cafes, restaurants and grocers.",
		ColorSchemes: []string{"warm", "fresh", "friendly"},
		Features:     []string{"menu_showcase", "opening_hours", "location_map", "order_inquiry"},
	},
	{
		Type:         BusinessFashion,
		Name:         "Fashion & Retail",
		Description:  "Visual storefronts for boutiques and apparel shops.",
		ColorSchemes: []string{"elegant", "bold", "luxurious"},
		Features:     []string{"product_gallery", "new_arrivals", "style_guide", "newsletter"},
	},
	{
		Type:         BusinessProfessional,
		Name:         "Professional Services",
		Description:  "Clean pages for consultants, accountants and agencies.",
		ColorSchemes: []string{"corporate", "classic", "business"},
		Features:     []string{"service_list", "testimonials", "booking_inquiry", "credentials"},
	},
	{
		Type:         BusinessBeauty,
		Name:         "Beauty & Wellness",
		Description:  "Soft, calm designs for salons, spas and studios.",
		ColorSchemes: []string{"soft", "elegant", "fresh"},
		Features:     []string{"treatment_menu", "appointment_inquiry", "gallery", "reviews"},
	},
	{
		Type:         BusinessTechnology,
		Name:         "Technology",
		Description:  "Modern layouts for repair shops, IT services and startups.",
		ColorSchemes: []string{"tech", "modern", "futuristic"},
		Features:     []string{"service_list", "support_contact", "faq", "product_showcase"},
	},
	{
		Type:         BusinessGeneral,
		Name:         "General Business",
		Description:  "A flexible starting point for any local business.",
		ColorSchemes: []string{"modern", "neutral", "minimal"},
		Features:     []string{"about_section", "service_list", "contact_form", "reviews"},
	},
}

func BusinessThemes() []BusinessTheme {
	out := make([]BusinessTheme, len(businessThemes))
	copy(out, businessThemes)
	return out
}

package registry

import "pagebuilder/internal/domain"

// Default returns the registry of built-in block types. Numbers in defaults
// are float64 so a default block survives a JSON round trip unchanged.
func Default() *Registry {
	return New(builtin()...)
}

func builtin() []Descriptor {
	return []Descriptor{
		{
			Type:        domain.BlockTypeHero,
			Name:        "Hero Section",
			Icon:        "layout-template",
			Description: "Large headline with subtitle, call to action and background image",
			Category:    domain.CategoryHeader,
			Defaults: domain.Props{
				"title":           "Your Service Headline",
				"subtitle":        "Explain in one sentence what makes this service valuable.",
				"ctaText":         "Get Started",
				"ctaLink":         "/contact",
				"backgroundImage": "",
				"alignment":       "center",
			},
			Required: []string{"title", "subtitle"},
		},
		{
			Type:        domain.BlockTypeFeatures,
			Name:        "Features Grid",
			Icon:        "grid",
			Description: "Grid of feature cards with title and description",
			Category:    domain.CategoryContent,
			Defaults: domain.Props{
				"title":    "Why Choose Us",
				"subtitle": "",
				"columns":  float64(3),
				"features": []any{
					map[string]any{"id": "feature-1", "title": "Fast Delivery", "description": "We ship results quickly.", "icon": "zap"},
					map[string]any{"id": "feature-2", "title": "Expert Team", "description": "Specialists in every area.", "icon": "users"},
					map[string]any{"id": "feature-3", "title": "Ongoing Support", "description": "We stay with you after launch.", "icon": "life-buoy"},
				},
			},
			Required: []string{"title", "features"},
		},
		{
			Type:        domain.BlockTypeCTA,
			Name:        "Call to Action",
			Icon:        "megaphone",
			Description: "Conversion banner with a single button",
			Category:    domain.CategoryConversion,
			Defaults: domain.Props{
				"title":       "Ready to get started?",
				"description": "Book a free consultation today.",
				"buttonText":  "Contact Us",
				"buttonLink":  "/contact",
				"variant":     "primary",
			},
			Required: []string{"title", "buttonText", "buttonLink"},
		},
		{
			Type:        domain.BlockTypeFAQ,
			Name:        "FAQ",
			Icon:        "help-circle",
			Description: "Accordion of frequently asked questions",
			Category:    domain.CategoryContent,
			Defaults: domain.Props{
				"title": "Frequently Asked Questions",
				"faqs": []any{
					map[string]any{"id": "faq-1", "question": "How long does it take?", "answer": "Most projects finish within four weeks."},
				},
			},
			Required: []string{"title", "faqs"},
		},
		{
			Type:        domain.BlockTypeTestimonials,
			Name:        "Testimonials",
			Icon:        "message-square",
			Description: "Customer quotes with name and role",
			Category:    domain.CategorySocialProof,
			Defaults: domain.Props{
				"title": "What Our Clients Say",
				"testimonials": []any{
					map[string]any{"id": "testimonial-1", "name": "Jane Doe", "role": "CEO, Acme", "content": "They exceeded every expectation.", "avatar": "", "rating": float64(5)},
				},
			},
			Required: []string{"title", "testimonials"},
		},
		{
			Type:        domain.BlockTypeStats,
			Name:        "Statistics",
			Icon:        "bar-chart",
			Description: "Row of headline numbers",
			Category:    domain.CategorySocialProof,
			Defaults: domain.Props{
				"title": "By the Numbers",
				"stats": []any{
					map[string]any{"id": "stat-1", "label": "Happy Clients", "value": "250+"},
					map[string]any{"id": "stat-2", "label": "Years Experience", "value": "10"},
				},
			},
			Required: []string{"stats"},
		},
		{
			Type:        domain.BlockTypePricing,
			Name:        "Pricing Table",
			Icon:        "credit-card",
			Description: "Side by side pricing plans",
			Category:    domain.CategoryConversion,
			Defaults: domain.Props{
				"title": "Simple Pricing",
				"plans": []any{
					map[string]any{"id": "plan-1", "name": "Starter", "price": "$49", "period": "month", "features": []any{"1 project", "Email support"}, "highlighted": false},
					map[string]any{"id": "plan-2", "name": "Pro", "price": "$99", "period": "month", "features": []any{"5 projects", "Priority support"}, "highlighted": true},
				},
			},
			Required: []string{"title", "plans"},
		},
		{
			Type:        domain.BlockTypeText,
			Name:        "Text",
			Icon:        "type",
			Description: "Free-form rich text (markdown)",
			Category:    domain.CategoryContent,
			Defaults: domain.Props{
				"content":   "Write your content here.",
				"alignment": "left",
			},
			Required: []string{"content"},
		},
		{
			Type:        domain.BlockTypeImage,
			Name:        "Image",
			Icon:        "image",
			Description: "Single image with caption and optional link",
			Category:    domain.CategoryMedia,
			Defaults: domain.Props{
				"src":     "",
				"alt":     "",
				"caption": "",
				"link":    "",
			},
			Required: []string{"alt"},
		},
		{
			Type:        domain.BlockTypeVideo,
			Name:        "Video",
			Icon:        "video",
			Description: "Embedded video player",
			Category:    domain.CategoryMedia,
			Defaults: domain.Props{
				"url":      "",
				"title":    "",
				"autoplay": false,
			},
			Required: []string{"url"},
		},
		{
			Type:        domain.BlockTypeContact,
			Name:        "Contact",
			Icon:        "mail",
			Description: "Contact details and enquiry form",
			Category:    domain.CategoryConversion,
			Defaults: domain.Props{
				"title":       "Get in Touch",
				"description": "",
				"email":       "hello@example.com",
				"phone":       "",
				"showForm":    true,
			},
			Required: []string{"title", "email"},
		},
		{
			Type:        domain.BlockTypeDivider,
			Name:        "Divider",
			Icon:        "minus",
			Description: "Horizontal separator",
			Category:    domain.CategoryLayout,
			Defaults: domain.Props{
				"style": "line",
			},
		},
	}
}

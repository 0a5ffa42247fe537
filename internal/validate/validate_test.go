package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

func newValidator() *Validator {
	return New(registry.Default())
}

func TestValidate_HeroEmptyPropsFlagsEveryRequiredKey(t *testing.T) {
	v := newValidator()
	errs := v.Validate(domain.BlockTypeHero, domain.Props{})

	for _, key := range registry.Default().Required(domain.BlockTypeHero) {
		assert.Contains(t, errs, key)
	}
}

func TestValidate_HeroShortTitle(t *testing.T) {
	v := newValidator()
	errs := v.Validate(domain.BlockTypeHero, domain.Props{"title": "ab"})

	assert.Equal(t, "title must be at least 3 characters", errs["title"])
	assert.Contains(t, errs, "subtitle")
}

func TestValidate_BlankStringCountsAsMissing(t *testing.T) {
	v := newValidator()
	errs := v.Validate(domain.BlockTypeHero, domain.Props{"title": "   ", "subtitle": "ok"})
	assert.Equal(t, "title is required", errs["title"])
}

func TestValidate_Lists(t *testing.T) {
	v := newValidator()
	tests := []struct {
		name    string
		typ     domain.BlockType
		props   domain.Props
		key     string
		wantMsg string
	}{
		{"features missing", domain.BlockTypeFeatures, domain.Props{"title": "x"}, "features", "features is required"},
		{"features empty", domain.BlockTypeFeatures, domain.Props{"title": "x", "features": []any{}}, "features", "add at least one feature"},
		{"features wrong shape", domain.BlockTypeFeatures, domain.Props{"title": "x", "features": "nope"}, "features", "features must be a list"},
		{"faq empty", domain.BlockTypeFAQ, domain.Props{"title": "x", "faqs": []any{}}, "faqs", "add at least one question"},
		{"testimonials empty", domain.BlockTypeTestimonials, domain.Props{"title": "x", "testimonials": []map[string]any{}}, "testimonials", "add at least one testimonial"},
		{"stats empty", domain.BlockTypeStats, domain.Props{"stats": []any{}}, "stats", "add at least one statistic"},
		{"pricing empty", domain.BlockTypePricing, domain.Props{"title": "x", "plans": []any{}}, "plans", "add at least one plan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.typ, tt.props)
			assert.Equal(t, tt.wantMsg, errs[tt.key])
		})
	}
}

func TestValidate_CTAAndText(t *testing.T) {
	v := newValidator()

	errs := v.Validate(domain.BlockTypeCTA, domain.Props{"title": "Go", "buttonText": "x", "buttonLink": "/c"})
	assert.Equal(t, "buttonText must be at least 2 characters", errs["buttonText"])

	errs = v.Validate(domain.BlockTypeText, domain.Props{"content": "too short"})
	assert.Equal(t, "content must be at least 10 characters", errs["content"])

	errs = v.Validate(domain.BlockTypeText, domain.Props{"content": "long enough content"})
	assert.True(t, errs.Valid())
}

func TestValidate_ImageURL(t *testing.T) {
	v := newValidator()

	errs := v.Validate(domain.BlockTypeImage, domain.Props{"alt": "A photo", "src": "not a url"})
	assert.Contains(t, errs, "src")

	errs = v.Validate(domain.BlockTypeImage, domain.Props{"alt": "A photo", "src": "https://cdn.example.com/a.png"})
	assert.True(t, errs.Valid())

	errs = v.Validate(domain.BlockTypeImage, domain.Props{"alt": "A photo"})
	assert.True(t, errs.Valid(), "src is optional")
}

func TestValidate_ContactEmail(t *testing.T) {
	v := newValidator()
	errs := v.Validate(domain.BlockTypeContact, domain.Props{"title": "Hi", "email": "nope"})
	assert.Equal(t, "email must be a valid address", errs["email"])
}

func TestValidate_UnknownType(t *testing.T) {
	v := newValidator()
	errs := v.Validate("carousel", domain.Props{})
	assert.Contains(t, errs, "type")
}

func TestValidate_DefaultsAreValidExceptImageAndVideo(t *testing.T) {
	reg := registry.Default()
	v := New(reg)
	for _, d := range reg.All() {
		errs := v.Validate(d.Type, d.Defaults)
		switch d.Type {
		case domain.BlockTypeImage, domain.BlockTypeVideo:
			assert.False(t, errs.Valid(), "%s defaults need user input", d.Type)
		default:
			assert.True(t, errs.Valid(), "%s defaults: %v", d.Type, errs)
		}
	}
}

func TestValidateDocument(t *testing.T) {
	v := newValidator()
	doc := domain.PageContent{Blocks: []domain.Block{
		{ID: "a", Type: domain.BlockTypeText, Props: domain.Props{"content": "long enough content"}},
		{ID: "b", Type: domain.BlockTypeText, Props: domain.Props{"content": "short"}},
	}}
	out := v.ValidateDocument(doc)
	assert.Len(t, out, 1)
	assert.Contains(t, out, "b")
}

func TestValidate_FieldFormats(t *testing.T) {
	v := newValidator()
	tests := []struct {
		name  string
		typ   domain.BlockType
		props domain.Props
		key   string
		valid bool
	}{
		{"video absolute url", domain.BlockTypeVideo, domain.Props{"url": "https://youtu.be/abc"}, "url", true},
		{"video relative path", domain.BlockTypeVideo, domain.Props{"url": "/videos/intro.mp4"}, "url", false},
		{"video missing host", domain.BlockTypeVideo, domain.Props{"url": "https://"}, "url", false},
		{"image link checked too", domain.BlockTypeImage, domain.Props{"alt": "A", "link": "example dot com"}, "link", false},
		{"image blank link skipped", domain.BlockTypeImage, domain.Props{"alt": "A", "link": "  "}, "link", true},
		{"contact email ok", domain.BlockTypeContact, domain.Props{"title": "Hi", "email": "team@studio.example"}, "email", true},
		{"contact email missing domain", domain.BlockTypeContact, domain.Props{"title": "Hi", "email": "team@"}, "email", false},
		{"hero title counts runes", domain.BlockTypeHero, domain.Props{"title": "Ünë", "subtitle": "s"}, "title", true},
		{"hero title trimmed", domain.BlockTypeHero, domain.Props{"title": " ab ", "subtitle": "s"}, "title", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Validate(tt.typ, tt.props)
			if tt.valid {
				assert.NotContains(t, errs, tt.key)
			} else {
				assert.Contains(t, errs, tt.key)
			}
		})
	}
}

func TestValidate_URLMessage(t *testing.T) {
	v := newValidator()
	errs := v.Validate(domain.BlockTypeVideo, domain.Props{"url": "intro.mp4"})
	assert.Equal(t, "url must be a valid absolute URL", errs["url"])
}

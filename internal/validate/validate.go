// Package validate checks block props against the registry's required keys
// and the per-type rules.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/registry"
)

const (
	minHeroTitle   = 3
	minButtonLabel = 2
	minTextContent = 10
)

// listRules names the list prop each collection block must carry, and the
// noun used in its messages.
var listRules = map[domain.BlockType]struct{ key, noun string }{
	domain.BlockTypeFeatures:     {"features", "feature"},
	domain.BlockTypeFAQ:          {"faqs", "question"},
	domain.BlockTypeTestimonials: {"testimonials", "testimonial"},
	domain.BlockTypeStats:        {"stats", "statistic"},
	domain.BlockTypePricing:      {"plans", "plan"},
}

// fieldRule checks one string prop with a validator tag. Blank values are
// skipped; the required pass reports those.
type fieldRule struct {
	key string
	tag string
	msg string
}

func minRule(key string, n int) fieldRule {
	return fieldRule{key: key, tag: fmt.Sprintf("min=%d", n), msg: fmt.Sprintf("%s must be at least %d characters", key, n)}
}

func urlRule(key string) fieldRule {
	return fieldRule{key: key, tag: "url", msg: key + " must be a valid absolute URL"}
}

var fieldRules = map[domain.BlockType][]fieldRule{
	domain.BlockTypeHero:    {minRule("title", minHeroTitle)},
	domain.BlockTypeCTA:     {minRule("buttonText", minButtonLabel)},
	domain.BlockTypeText:    {minRule("content", minTextContent)},
	domain.BlockTypeImage:   {urlRule("src"), urlRule("link")},
	domain.BlockTypeVideo:   {urlRule("url")},
	domain.BlockTypeContact: {{key: "email", tag: "email", msg: "email must be a valid address"}},
}

type Validator struct {
	reg    *registry.Registry
	fields *validator.Validate
}

func New(reg *registry.Registry) *Validator {
	return &Validator{reg: reg, fields: validator.New()}
}

// Validate returns the field errors of props for block type t.
func (v *Validator) Validate(t domain.BlockType, props domain.Props) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	if !v.reg.Has(t) {
		errs["type"] = fmt.Sprintf("unknown block type %q", t)
		return errs
	}

	for _, key := range v.reg.Required(t) {
		if props.IsBlank(key) {
			errs[key] = key + " is required"
		}
	}

	for key, msg := range v.typeRules(t, props) {
		if _, taken := errs[key]; !taken {
			errs[key] = msg
		}
	}
	return errs
}

// ValidateBlock validates one block.
func (v *Validator) ValidateBlock(b domain.Block) domain.ValidationErrors {
	return v.Validate(b.Type, b.Props)
}

// ValidateDocument returns the field errors of every invalid block, keyed by
// block ID. An empty map means the document is publishable.
func (v *Validator) ValidateDocument(doc domain.PageContent) map[string]domain.ValidationErrors {
	out := map[string]domain.ValidationErrors{}
	for _, b := range doc.Blocks {
		if errs := v.ValidateBlock(b); !errs.Valid() {
			out[b.ID] = errs
		}
	}
	return out
}

func (v *Validator) typeRules(t domain.BlockType, props domain.Props) domain.ValidationErrors {
	errs := domain.ValidationErrors{}
	if rule, ok := listRules[t]; ok {
		nonEmptyList(errs, props, rule.key, rule.noun)
	}
	for _, r := range fieldRules[t] {
		if props.IsBlank(r.key) {
			continue
		}
		if err := v.fields.Var(strings.TrimSpace(props.String(r.key)), r.tag); err != nil {
			errs[r.key] = r.msg
		}
	}
	return errs
}

func nonEmptyList(errs domain.ValidationErrors, props domain.Props, key, noun string) {
	if v, ok := props[key]; !ok || v == nil {
		return
	}
	items, ok := props.List(key)
	if !ok {
		errs[key] = key + " must be a list"
		return
	}
	if len(items) == 0 {
		errs[key] = "add at least one " + noun
	}
}

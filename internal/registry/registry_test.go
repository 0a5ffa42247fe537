package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pagebuilder/internal/domain"
)

func TestDescribe_KnownType(t *testing.T) {
	r := Default()
	d, err := r.Describe(domain.BlockTypeHero)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryHeader, d.Category)
	assert.Equal(t, []string{"title", "subtitle"}, d.Required)
	assert.NotEmpty(t, d.Defaults.String("title"))
}

func TestDescribe_UnknownType(t *testing.T) {
	r := Default()
	_, err := r.Describe("carousel")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnknownBlockType))

	var opErr *domain.OperationError
	assert.True(t, errors.As(err, &opErr))
}

func TestDescribe_ReturnsCopies(t *testing.T) {
	r := Default()
	d, err := r.Describe(domain.BlockTypeFeatures)
	require.NoError(t, err)

	d.Defaults["title"] = "mutated"
	items, ok := d.Defaults.List("features")
	require.True(t, ok)
	items[0].(map[string]any)["title"] = "mutated"
	d.Required[0] = "mutated"

	again, err := r.Describe(domain.BlockTypeFeatures)
	require.NoError(t, err)
	assert.Equal(t, "Why Choose Us", again.Defaults.String("title"))
	fresh, _ := again.Defaults.List("features")
	assert.Equal(t, "Fast Delivery", fresh[0].(map[string]any)["title"])
	assert.Equal(t, "title", again.Required[0])
}

func TestNew_PanicsOnDuplicate(t *testing.T) {
	assert.Panics(t, func() {
		New(Descriptor{Type: "x"}, Descriptor{Type: "x"})
	})
}

func TestByCategory(t *testing.T) {
	r := Default()
	social := r.ByCategory(domain.CategorySocialProof)
	var types []domain.BlockType
	for _, d := range social {
		types = append(types, d.Type)
	}
	assert.ElementsMatch(t, []domain.BlockType{domain.BlockTypeTestimonials, domain.BlockTypeStats}, types)
}

func TestTypesPreserveRegistrationOrder(t *testing.T) {
	r := New(Descriptor{Type: "b"}, Descriptor{Type: "a"})
	assert.Equal(t, []domain.BlockType{"b", "a"}, r.Types())
	assert.True(t, r.Has("a"))
	assert.False(t, r.Has("c"))
	assert.Nil(t, r.Required("c"))
}

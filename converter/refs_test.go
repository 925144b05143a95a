package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverSectionAnchors(t *testing.T) {
	r := newResolver()
	r.registerSection([]string{"intro", "introduction"}, "Intro", "Intro")
	r.registerSection([]string{"intro-2"}, "Intro", "Intro")
	r.registerSection([]string{"intro-3"}, "Intro", "Intro")

	label, target, err := r.resolveInternal("introduction")
	require.NoError(t, err)
	assert.Equal(t, "Intro", label)
	assert.Equal(t, "#intro", target)

	_, target, err = r.resolveInternal("intro-2")
	require.NoError(t, err)
	assert.Equal(t, "#intro-1", target)

	_, target, err = r.resolveInternal("intro-3")
	require.NoError(t, err)
	assert.Equal(t, "#intro-2", target)

	_, _, err = r.resolveInternal("unknown")
	assert.ErrorIs(t, err, ErrUnresolvedReference)
}

func TestResolverAnchorAvoidsExistingSlug(t *testing.T) {
	r := newResolver()
	r.registerSection([]string{"a"}, "Setup 1", "")
	r.registerSection([]string{"b"}, "Setup", "")
	r.registerSection([]string{"c"}, "Setup", "")

	_, target, err := r.resolveInternal("c")
	require.NoError(t, err)
	assert.Equal(t, "#setup-2", target)
}

func TestResolverReservedHeadingShiftsSections(t *testing.T) {
	r := newResolver()
	r.reserveHeading("Guide")
	r.reserveHeading("")
	r.registerSection([]string{"s1"}, "Guide", "Guide")

	_, target, err := r.resolveInternal("s1")
	require.NoError(t, err)
	assert.Equal(t, "#guide-1", target)
}

func TestResolverAnchorlessTarget(t *testing.T) {
	r := newResolver()
	r.registerTarget("here", "Here", false)
	r.registerTarget("there", "", true)

	label, target, err := r.resolveInternal("here")
	require.NoError(t, err)
	assert.Equal(t, "Here", label)
	assert.Empty(t, target)

	_, target, err = r.resolveInternal("there")
	require.NoError(t, err)
	assert.Equal(t, "#there", target)
}

func TestResolverFootnoteOrder(t *testing.T) {
	r := newResolver()
	r.declareFootnote("a")
	r.declareFootnote("b")
	r.declareFootnote("c")

	label, err := r.footnoteLabel("b")
	require.NoError(t, err)
	assert.Equal(t, "1", label)

	label, err = r.footnoteLabel("a")
	require.NoError(t, err)
	assert.Equal(t, "2", label)

	label, err = r.footnoteLabel("b")
	require.NoError(t, err)
	assert.Equal(t, "1", label, "labels are stable")

	assert.Equal(t, "2", r.registerFootnote("a", "alpha"))
	assert.Equal(t, "1", r.registerFootnote("b", "beta\n\nsecond"))
	assert.Equal(t, "3", r.registerFootnote("c", "gamma"))

	block, err := r.flush()
	require.NoError(t, err)
	assert.Equal(t, "[^1]: beta\n\n    second\n\n[^2]: alpha\n\n[^3]: gamma\n", block)

	_, err = r.flush()
	assert.ErrorIs(t, err, ErrAlreadyFlushed)
}

func TestResolverFlushFailsOnMissingBody(t *testing.T) {
	r := newResolver()
	r.declareFootnote("orphan")
	_, err := r.footnoteLabel("orphan")
	require.NoError(t, err)

	_, err = r.flush()
	assert.ErrorIs(t, err, ErrUnresolvedReference)
	assert.Contains(t, err.Error(), "orphan")
}

func TestResolverFlushEmpty(t *testing.T) {
	block, err := newResolver().flush()
	require.NoError(t, err)
	assert.Equal(t, "", block)
}

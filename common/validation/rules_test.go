package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaforge/renditions/common/imaging"
)

func meta(width, height int) *imaging.Metadata {
	return &imaging.Metadata{
		Width:    width,
		Height:   height,
		Size:     120.5,
		Format:   imaging.FormatJPEG,
		MIMEType: "image/jpeg",
		Extname:  "jpg",
	}
}

func TestDimensionRuleConstructionErrors(t *testing.T) {
	_, err := MinImageWidth(0)
	assert.Error(t, err)

	_, err = MinImageHeight(-5)
	assert.Error(t, err)

	_, err = MaxImageWidth(0)
	assert.Error(t, err)

	_, err = ImageAspectRatio(0)
	assert.Error(t, err)

	_, err = ImageAspectRatio(-1.5)
	assert.Error(t, err)
}

func TestMinImageWidth(t *testing.T) {
	rule, err := MinImageWidth(500)
	require.NoError(t, err)

	assert.Nil(t, rule.Check(meta(500, 100)))
	assert.Nil(t, rule.Check(meta(800, 100)))

	v := rule.Check(meta(499, 100))
	require.NotNil(t, v)
	assert.Equal(t, "min_image_width", v.Rule)
	assert.Contains(t, v.Message, "499")
}

func TestMaxImageDimensions(t *testing.T) {
	maxW, err := MaxImageWidth(1920)
	require.NoError(t, err)
	maxH, err := MaxImageHeight(1080)
	require.NoError(t, err)

	assert.Nil(t, maxW.Check(meta(1920, 1080)))
	assert.NotNil(t, maxW.Check(meta(1921, 1080)))

	assert.Nil(t, maxH.Check(meta(1920, 1080)))
	v := maxH.Check(meta(1920, 1200))
	require.NotNil(t, v)
	assert.Equal(t, "max_image_height", v.Rule)
}

func TestImageAspectRatio(t *testing.T) {
	rule, err := ImageAspectRatio(16.0 / 9.0)
	require.NoError(t, err)

	assert.Nil(t, rule.Check(meta(1920, 1080)))
	assert.Nil(t, rule.Check(meta(1280, 720)))
	assert.NotNil(t, rule.Check(meta(1000, 1000)))
	assert.NotNil(t, rule.Check(meta(100, 0)))
}

func TestValidateRejectsUndecodableBuffer(t *testing.T) {
	violations := Validate([]byte("not an image"))
	require.Len(t, violations, 1)
	assert.Equal(t, "decodable_image", violations[0].Rule)
}

func TestExpressionRuleCompileErrors(t *testing.T) {
	_, err := NewExpressionRule("")
	assert.Error(t, err)

	_, err = NewExpressionRule("width >=")
	assert.Error(t, err)

	_, err = NewExpressionRule("undeclared_var > 1")
	assert.Error(t, err)
}

func TestExpressionRuleEvaluation(t *testing.T) {
	rule, err := NewExpressionRule("width >= 200 && height >= 100")
	require.NoError(t, err)

	assert.Nil(t, rule.Check(meta(200, 100)))
	assert.Nil(t, rule.Check(meta(1920, 1080)))

	v := rule.Check(meta(199, 100))
	require.NotNil(t, v)
	assert.Equal(t, "expression_rule", v.Rule)
}

func TestExpressionRuleVariables(t *testing.T) {
	rule, err := NewExpressionRule(`format == "jpeg" && size < 500.0`)
	require.NoError(t, err)
	assert.Nil(t, rule.Check(meta(100, 100)))

	rule, err = NewExpressionRule(`format == "png"`)
	require.NoError(t, err)
	assert.NotNil(t, rule.Check(meta(100, 100)))
}

func TestExpressionRuleNonBoolean(t *testing.T) {
	rule, err := NewExpressionRule("width + height")
	require.NoError(t, err)

	v := rule.Check(meta(100, 100))
	require.NotNil(t, v)
	assert.Contains(t, v.Message, "boolean")
}

func TestExpressionProgramCacheReuse(t *testing.T) {
	first, err := NewExpressionRule("width > 10")
	require.NoError(t, err)

	second, err := NewExpressionRule("width > 10")
	require.NoError(t, err)

	// Compiled program is shared between instances
	assert.Equal(t, first.prg, second.prg)
}

func TestViolationError(t *testing.T) {
	v := Violation{Rule: "min_image_width", Message: "too narrow"}
	assert.Equal(t, "min_image_width: too narrow", v.Error())
}

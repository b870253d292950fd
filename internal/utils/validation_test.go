package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qualisoftsn/workflow-api/internal/utils"
)

func TestValidateID(t *testing.T) {
	assert.NoError(t, utils.ValidateID("wf-123_abc"))
	assert.ErrorIs(t, utils.ValidateID(""), utils.ErrEmptyID)
	assert.ErrorIs(t, utils.ValidateID("wf/123"), utils.ErrInvalidIDFormat)
	assert.ErrorIs(t, utils.ValidateID("wf 123"), utils.ErrInvalidIDFormat)
	assert.ErrorIs(t, utils.ValidateID(strings.Repeat("a", 65)), utils.ErrIDTooLong)
}

func TestValidateLabel(t *testing.T) {
	assert.NoError(t, utils.ValidateLabel("Validation qualité"))
	assert.ErrorIs(t, utils.ValidateLabel("   "), utils.ErrEmptyLabel)
	assert.ErrorIs(t, utils.ValidateLabel(strings.Repeat("x", 256)), utils.ErrLabelTooLong)
	assert.ErrorIs(t, utils.ValidateLabel("<script>alert(1)</script>"), utils.ErrDangerousChars)
	assert.ErrorIs(t, utils.ValidateLabel("x'; DROP TABLE workflows"), utils.ErrDangerousChars)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;gras&lt;/b&gt;", utils.SanitizeString("<b>gras</b>"))

	// control characters are stripped, newlines and tabs survive
	assert.Equal(t, "a\nb\tc", utils.SanitizeString("a\nb\tc\x00\x07"))
}

func TestTrimAndValidate(t *testing.T) {
	out, err := utils.TrimAndValidate("  bonjour  ", 10)
	require.NoError(t, err)
	assert.Equal(t, "bonjour", out)

	_, err = utils.TrimAndValidate("   ", 10)
	assert.ErrorIs(t, err, utils.ErrEmptyString)

	_, err = utils.TrimAndValidate("trop long pour la limite", 5)
	assert.ErrorIs(t, err, utils.ErrStringTooLong)
}

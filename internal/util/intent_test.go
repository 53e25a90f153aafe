package util

import (
	"testing"

	"journey_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIntentAppliesDefaults(t *testing.T) {
	out, defaulted, err := ValidateIntent(model.Intent{Topic: "  go concurrency  "})

	require.NoError(t, err)
	assert.Equal(t, "go concurrency", out.Topic)
	assert.Equal(t, "beginner", out.Level)
	assert.Equal(t, "Learn go concurrency", out.Goal)
	assert.Equal(t, "any", out.PreferredFormat)
	assert.Equal(t, "flexible", out.TimeCommitment)
	assert.ElementsMatch(t, []string{"level", "goal", "preferredFormat", "timeCommitment"}, defaulted)
}

func TestValidateIntentKeepsValidFields(t *testing.T) {
	out, defaulted, err := ValidateIntent(model.Intent{
		Topic:           "rust",
		Level:           "Advanced",
		Goal:            "build a parser",
		PreferredFormat: "VIDEO",
		TimeCommitment:  "2h/week",
	})

	require.NoError(t, err)
	assert.Equal(t, "advanced", out.Level)
	assert.Equal(t, "video", out.PreferredFormat)
	assert.Empty(t, defaulted)
}

func TestValidateIntentRejectsPlaceholders(t *testing.T) {
	for _, topic := range []string{"", "   ", "test", "TODO", "asdf"} {
		_, _, err := ValidateIntent(model.Intent{Topic: topic})
		assert.ErrorIs(t, err, ErrInvalidTopic, "topic: %q", topic)
	}
}

func TestMixedFormat(t *testing.T) {
	assert.True(t, MixedFormat(""))
	assert.True(t, MixedFormat("any"))
	assert.True(t, MixedFormat("mixed"))
	assert.False(t, MixedFormat("video"))
	assert.False(t, MixedFormat("blog"))
}

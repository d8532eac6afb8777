package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deeplooplabs/ai-assistant/model"
	"github.com/deeplooplabs/ai-assistant/parse"
)

func TestCatalogIsSchemaValid(t *testing.T) {
	msgs := MessageSuggestions()
	assert.NoError(t, msgs.Validate())
	assert.Len(t, msgs.Suggestions, 3)

	ideas := EventIdeas()
	assert.NoError(t, ideas.Validate())

	starters := ConversationStarters()
	assert.NoError(t, starters.Validate())

	tip := RelationshipTip()
	assert.NoError(t, tip.Validate())
}

func TestFor(t *testing.T) {
	for _, f := range model.Features {
		v := For(f)
		require.NotNil(t, v, "feature %s", f)
		if validator, ok := v.(parse.Validator); ok {
			assert.NoError(t, validator.Validate())
		}
	}

	assert.Nil(t, For(model.Feature("unknown")))
}

func TestCatalogReturnsCopies(t *testing.T) {
	ideas := EventIdeas()
	ideas[0].Title = "changed"

	tip := RelationshipTip()
	tip.ActionItems[0] = "changed"

	assert.NotEqual(t, "changed", EventIdeas()[0].Title)
	assert.NotEqual(t, "changed", RelationshipTip().ActionItems[0])
}

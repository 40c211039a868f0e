package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonsieve/internal/config"
	"github.com/mcncl/jsonsieve/internal/extract"
	"github.com/mcncl/jsonsieve/internal/parser"
	"github.com/mcncl/jsonsieve/internal/policy"
)

func TestIntegration_PresetParserGenerator(t *testing.T) {
	// the full pipeline: config preset -> policy -> parser -> generator
	jsonInput := `{
		"success": true,
		"profiles": [{
			"profile_id": "p1",
			"members": {
				"A": {
					"collection": {"WHEAT": 10},
					"quests": {"q": 1},
					"coins": 5
				},
				"B": {
					"collection": {"WHEAT": 3},
					"profile": {"deletion_notice": {"timestamp": 1685620800000}, "bank": 7},
					"coins": 9
				}
			}
		}]
	}`

	cfg := config.NewConfig()
	cfg.Preset = "skyblock-profiles"
	cfg.Selector = "A"

	pol, err := policy.Compile(cfg.PolicyConfig(), cfg.PolicySelector())
	require.NoError(t, err)

	res, err := parser.ParseString(jsonInput, extract.New(pol))
	require.NoError(t, err)

	lines := NewGenerator().Generate(res.Value)

	want := []Line{
		{Path: "$.success", Value: "true"},
		{Path: "$.profiles[0].profile_id", Value: `"p1"`},
		{Path: "$.profiles[0].members.A.collection.WHEAT", Value: "10"},
		{Path: "$.profiles[0].members.A.coins", Value: "5"},
		{Path: "$.profiles[0].members.B.collection.WHEAT", Value: "3"},
		{Path: "$.profiles[0].members.B.profile.deletion_notice.timestamp", Value: "1685620800000"},
	}
	assert.Equal(t, want, lines)
}

package config

import "sort"

// Preset is a named, built-in skip configuration.
type Preset struct {
	Description string
	Blacklist   []string
	Rules       []RuleConfig
}

// Members of a SkyBlock profile that are never read but account for most
// of the payload.
var skyblockIgnored = []string{
	"quests",
	"visited_zones",
	"experimentation",
	"unlocked_coll_tiers",
	"backpack_icons",
	"slayer_quest",
	"achievement_spawned_island_types",
	"active_effects",
	"paused_effects",
	"disabled_potion_effects",
	"visited_modes",
	"fishing_bag",
	"potion_bag",
	"candy_inventory_contents",
	"quiver",
	"autopet",
	"objectives",
	"claimed_levels",
	"dungeon_journal",
	"best_runs",
	"dungeons_blah_blah",
	"daily_runs",
	"treasures",
}

var presets = map[string]Preset{
	"skyblock-profiles": {
		Description: "Hypixel SkyBlock profiles: keep one member per profile plus shared collection data",
		Rules: []RuleConfig{{
			Trigger: "$.profiles[*].members",
			Allow: []string{
				"collection",
				"profile.deletion_notice.timestamp",
				"player_data.crafted_generators",
			},
			Drop: skyblockIgnored,
		}},
	},
}

// PresetNames lists the built-in presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupPreset returns the named preset.
func LookupPreset(name string) (Preset, bool) {
	p, ok := presets[name]
	return p, ok
}

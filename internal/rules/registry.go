package rules

// The rule table maps a resource type tag to its default verdict: true blocks
// access once every bypass (self, relationship, share, zone, permission) has
// failed; false allows it. Types absent from the table are blocked.
//
// baseRules is the version-1 table shipped with a fresh installation. Later
// schema versions append entries through the migrations list; operators are
// free to flip individual verdicts afterwards and migrations never touch an
// existing row.

const (
	// SchemaVersionKey is the system-setting key holding the applied rule schema version.
	SchemaVersionKey = "rules.schema_version"

	// CurrentSchemaVersion is the highest migration version known to this build.
	CurrentSchemaVersion = 7
)

var baseRules = map[string]bool{
	"box.wooden.large":            true,
	"button":                      true,
	"item_drop_backpack":          true,
	"woodbox_deployed":            true,
	"bbq.deployed":                true,
	"fridge.deployed":             true,
	"workbench1.deployed":         true,
	"workbench2.deployed":         true,
	"workbench3.deployed":         true,
	"cursedcauldron.deployed":     true,
	"campfire":                    true,
	"furnace.small":               true,
	"furnace.large":               true,
	"player":                      true,
	"player_corpse":               true,
	"recycler_static":             false,
	"sign.hanging":                true,
	"sign.pictureframe.tall":      true,
	"sign.pictureframe.xl":        true,
	"sign.pictureframe.xxl":       true,
	"repairbench_deployed":        false,
	"refinery_small_deployed":     false,
	"researchtable_deployed":      false,
	"mixingtable.deployed":        false,
	"abovegroundpool.deployed":    true,
	"paddlingpool.deployed":       true,
}

// migration adds rule entries introduced at a given schema version.
type migration struct {
	version int
	entries map[string]bool
}

// Migrations run in ascending version order. Each step only creates rows that
// do not exist yet, so an operator who flipped a verdict keeps their value
// when a later build re-seeds the same key.
var migrations = []migration{
	{version: 2, entries: map[string]bool{
		"fuelstorage":  true,
		"hopperoutput": true,
	}},
	{version: 3, entries: map[string]bool{
		"scientist_corpse": false,
	}},
	{version: 4, entries: map[string]bool{
		"murderer_corpse": false,
	}},
	{version: 5, entries: map[string]bool{
		"vendingmachine.deployed": false,
	}},
	{version: 6, entries: map[string]bool{
		"sign.small.wood":             true,
		"sign.medium.wood":            true,
		"sign.large.wood":             true,
		"sign.huge.wood":              true,
		"sign.pictureframe.landscape": true,
		"sign.pictureframe.portrait":  true,
	}},
	{version: 7, entries: map[string]bool{
		"lock.code": true,
		"lock.key":  true,
	}},
}

// Defaults returns a copy of the full rule table a fresh installation ends up
// with after every migration has been applied.
func Defaults() map[string]bool {
	out := make(map[string]bool, len(baseRules))
	for key, block := range baseRules {
		out[key] = block
	}
	for _, step := range migrations {
		for key, block := range step.entries {
			out[key] = block
		}
	}
	return out
}

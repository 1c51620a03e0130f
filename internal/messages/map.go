package messages

import "github.com/EvLab-MIT/cb2/internal/hexgrid"

// Tile is one hex cell of the map: an asset id for rendering plus the
// cell address and traversal cost.
type Tile struct {
	AssetID     int               `json:"asset_id"`
	Cell        hexgrid.HecsCoord `json:"cell"`
	Height      float64           `json:"height"`
	LayerHeight int               `json:"layer"`
}

// MapUpdate is a full map snapshot. The session layer treats map content
// as opaque beyond its dimensions; generation lives elsewhere.
type MapUpdate struct {
	Rows  int    `json:"rows"`
	Cols  int    `json:"cols"`
	Tiles []Tile `json:"tiles"`
}

// PropType categorizes props on the map.
type PropType int

const (
	PropTypeNone PropType = iota
	PropTypeSimple
	PropTypeCard
)

// CardConfig is the card-specific portion of a prop: the pattern printed
// on it and whether it is currently selected.
type CardConfig struct {
	Color    int  `json:"color"`
	Shape    int  `json:"shape"`
	Count    int  `json:"count"`
	Selected bool `json:"selected"`
}

// Prop is an object placed on the map. Cards are the only prop type the
// state machine mutates (selection toggling).
type Prop struct {
	ID       int               `json:"id"`
	PropType PropType          `json:"prop_type"`
	Location hexgrid.HecsCoord `json:"location"`
	Rotation float64           `json:"rotation_degrees"`
	Card     *CardConfig       `json:"card_init,omitempty"`
}

// PropUpdate is a full prop snapshot.
type PropUpdate struct {
	Props []Prop `json:"props"`
}

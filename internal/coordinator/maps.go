package coordinator

import (
	"github.com/EvLab-MIT/cb2/internal/hexgrid"
	"github.com/EvLab-MIT/cb2/internal/messages"
)

// MapSource supplies the board for freshly created games. Map content is
// opaque to the session layer; implementations can load real terrain or
// synthesize one.
type MapSource interface {
	Map() messages.MapUpdate
	Props() []messages.Prop
}

const (
	defaultMapRows = 10
	defaultMapCols = 10
	groundAssetID  = 0
)

// DefaultMapSource produces a flat board with one scorable card triple.
// Good enough for local games and tests; real deployments plug in their
// own source.
type DefaultMapSource struct{}

func (DefaultMapSource) Map() messages.MapUpdate {
	tiles := make([]messages.Tile, 0, defaultMapRows*defaultMapCols)
	for r := 0; r < defaultMapRows; r++ {
		for col := 0; col < defaultMapCols; col++ {
			tiles = append(tiles, messages.Tile{
				AssetID: groundAssetID,
				Cell:    hexgrid.FromOffset(r, col),
			})
		}
	}
	return messages.MapUpdate{Rows: defaultMapRows, Cols: defaultMapCols, Tiles: tiles}
}

func (DefaultMapSource) Props() []messages.Prop {
	// Pairwise distinct shape, color and count, so collecting all three
	// scores a set.
	return []messages.Prop{
		{
			ID:       1,
			PropType: messages.PropTypeCard,
			Location: hexgrid.FromOffset(2, 2),
			Card:     &messages.CardConfig{Color: 1, Shape: 1, Count: 1},
		},
		{
			ID:       2,
			PropType: messages.PropTypeCard,
			Location: hexgrid.FromOffset(4, 6),
			Card:     &messages.CardConfig{Color: 2, Shape: 2, Count: 2},
		},
		{
			ID:       3,
			PropType: messages.PropTypeCard,
			Location: hexgrid.FromOffset(7, 3),
			Card:     &messages.CardConfig{Color: 3, Shape: 3, Count: 3},
		},
	}
}

package engine

import "fmt"

// IndexError is raised (as a panic value) when a grid access falls outside the grid
type IndexError struct {
	Row, Col   int
	Rows, Cols int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("grid index (%d,%d) out of range for %dx%d grid", e.Row, e.Col, e.Rows, e.Cols)
}

// Grid stores every tile of the farm in one flat, row-major byte buffer.
// Tile (row, col) occupies bytes [(row*cols+col)*FieldsPerCell, +FieldsPerCell).
type Grid struct {
	rows int
	cols int
	data []byte
}

// NewGrid allocates a zeroed grid. Dimensions below one are raised to one.
func NewGrid(rows, cols int) *Grid {
	if rows < MinGridSize {
		rows = MinGridSize
	}
	if cols < MinGridSize {
		cols = MinGridSize
	}
	return &Grid{
		rows: rows,
		cols: cols,
		data: make([]byte, rows*cols*FieldsPerCell),
	}
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Len returns the buffer length a Restore must match
func (g *Grid) Len() int { return len(g.data) }

// InBounds reports whether row, col addresses a tile of the grid
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.rows && col >= 0 && col < g.cols
}

func (g *Grid) offset(field Field, row, col int) int {
	if !g.InBounds(row, col) || field < FieldSunlight || field > FieldPlantLevel {
		panic(&IndexError{Row: row, Col: col, Rows: g.rows, Cols: g.cols})
	}
	return (row*g.cols+col)*FieldsPerCell + int(field)
}

// Get reads one field of a tile. It panics with *IndexError when out of range.
func (g *Grid) Get(field Field, row, col int) uint8 {
	return g.data[g.offset(field, row, col)]
}

// Set writes one field of a tile. It panics with *IndexError when out of range.
func (g *Grid) Set(field Field, row, col int, value uint8) {
	g.data[g.offset(field, row, col)] = value
}

// Clone returns an independent copy of the raw buffer
func (g *Grid) Clone() []byte {
	out := make([]byte, len(g.data))
	copy(out, g.data)
	return out
}

// Restore replaces the whole buffer. A buffer of the wrong length is rejected
// and the grid is left untouched.
func (g *Grid) Restore(data []byte) error {
	if len(data) != len(g.data) {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrGridSize, len(data), len(g.data))
	}
	copy(g.data, data)
	return nil
}

// Tile decodes the tile at row, col
func (g *Grid) Tile(row, col int) Tile {
	base := g.offset(FieldSunlight, row, col)
	return Tile{
		Row:      row,
		Col:      col,
		Sunlight: int(g.data[base+int(FieldSunlight)]),
		Water:    int(g.data[base+int(FieldWater)]),
		Plant:    PlantType(g.data[base+int(FieldPlantType)]),
		Level:    int(g.data[base+int(FieldPlantLevel)]),
	}
}

// Tiles returns every tile in row-major order
func (g *Grid) Tiles() []Tile {
	tiles := make([]Tile, 0, g.rows*g.cols)
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			tiles = append(tiles, g.Tile(row, col))
		}
	}
	return tiles
}

// ClearTile removes any plant from the tile
func (g *Grid) ClearTile(row, col int) {
	g.Set(FieldPlantType, row, col, uint8(None))
	g.Set(FieldPlantLevel, row, col, 0)
}

// NeighborCount counts tiles of the given plant type among the eight cells
// surrounding row, col. Cells past the edge are skipped.
func (g *Grid) NeighborCount(row, col int, plant PlantType) int {
	count := 0
	for dr := -1; dr <= 1; dr++ {
		for dc := -1; dc <= 1; dc++ {
			if dr == 0 && dc == 0 {
				continue
			}
			r, c := row+dr, col+dc
			if !g.InBounds(r, c) {
				continue
			}
			if PlantType(g.Get(FieldPlantType, r, c)) == plant {
				count++
			}
		}
	}
	return count
}

// OrthogonalHas reports whether any of the four edge-adjacent cells holds one of plants
func (g *Grid) OrthogonalHas(row, col int, plants ...PlantType) bool {
	steps := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	for _, s := range steps {
		r, c := row+s[0], col+s[1]
		if !g.InBounds(r, c) {
			continue
		}
		got := PlantType(g.Get(FieldPlantType, r, c))
		for _, p := range plants {
			if got == p {
				return true
			}
		}
	}
	return false
}

// CheckGridData reports the first tile of data whose bytes no grid operation
// could produce: sunlight or water above 100, an unknown plant type, a level
// above MaxPlantLevel, or an empty tile with a level.
func CheckGridData(data []byte) error {
	for i := 0; i+FieldsPerCell <= len(data); i += FieldsPerCell {
		sun, water := data[i+int(FieldSunlight)], data[i+int(FieldWater)]
		plant, level := PlantType(data[i+int(FieldPlantType)]), data[i+int(FieldPlantLevel)]
		switch {
		case sun > MaxSunlight || water > MaxWater:
			return fmt.Errorf("%w: tile %d: sunlight %d, water %d", ErrBadTile, i/FieldsPerCell, sun, water)
		case plant != None && !plant.IsCrop():
			return fmt.Errorf("%w: tile %d: plant type %d", ErrBadTile, i/FieldsPerCell, plant)
		case level > MaxPlantLevel || (plant == None && level != 0):
			return fmt.Errorf("%w: tile %d: %s at level %d", ErrBadTile, i/FieldsPerCell, plant, level)
		}
	}
	return nil
}

// normalize enforces that an empty tile has level zero and bytes stay in range
func (g *Grid) normalize() {
	for i := 0; i+FieldsPerCell <= len(g.data); i += FieldsPerCell {
		if g.data[i+int(FieldSunlight)] > MaxSunlight {
			g.data[i+int(FieldSunlight)] = MaxSunlight
		}
		if g.data[i+int(FieldWater)] > MaxWater {
			g.data[i+int(FieldWater)] = MaxWater
		}
		if !PlantType(g.data[i+int(FieldPlantType)]).IsCrop() {
			g.data[i+int(FieldPlantType)] = uint8(None)
			g.data[i+int(FieldPlantLevel)] = 0
			continue
		}
		if g.data[i+int(FieldPlantLevel)] > MaxPlantLevel {
			g.data[i+int(FieldPlantLevel)] = MaxPlantLevel
		}
	}
}

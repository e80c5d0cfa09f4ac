package teamboard

// Viewport is the coarse width class of the organizer's screen.
type Viewport string

const (
	ViewportNarrow Viewport = "narrow"
	ViewportMedium Viewport = "medium"
	ViewportWide   Viewport = "wide"
)

// MaxColumns caps the number of team columns regardless of team count.
const MaxColumns = 3

// Grid is the column layout of the board.
type Grid struct {
	Columns int        `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Columns returns the column count for teamCount teams: one team gets a
// single column, two teams get two columns unless the viewport is narrow,
// and three or more teams are capped at MaxColumns.
func Columns(teamCount int, vp Viewport) int {
	switch {
	case teamCount <= 1 || vp == ViewportNarrow:
		return 1
	case teamCount == 2:
		return 2
	default:
		return MaxColumns
	}
}

// Layout arranges the board's team ids row by row.
func (b *Board) Layout(vp Viewport) Grid {
	cols := Columns(len(b.teams), vp)
	g := Grid{Columns: cols, Rows: [][]string{}}
	for i := 0; i < len(b.teams); i += cols {
		end := min(i+cols, len(b.teams))
		row := make([]string, 0, end-i)
		for _, t := range b.teams[i:end] {
			row = append(row, t.ID)
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}

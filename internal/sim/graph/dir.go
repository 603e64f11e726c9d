package graph

// Dir is a compass direction. The numeric order is the fixed
// evaluation order everywhere edges are enumerated.
type Dir uint8

const (
	North Dir = iota
	South
	East
	West

	dirCount = 4
)

// Directions lists all directions in evaluation order.
var Directions = [dirCount]Dir{North, South, East, West}

var dirNames = [dirCount]string{"north", "south", "east", "west"}

func (d Dir) String() string {
	if int(d) >= len(dirNames) {
		return "invalid"
	}
	return dirNames[d]
}

// ParseDir maps a lowercase token from the map format to its Dir.
func ParseDir(s string) (Dir, bool) {
	for i, n := range dirNames {
		if s == n {
			return Dir(i), true
		}
	}
	return 0, false
}

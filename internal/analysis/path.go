package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/springz/internal/sim"
)

type Point struct{ X, Y float64 }

// NodePath collects the position of node idx from every frame that has it.
func NodePath(frames []sim.Frame, idx int) []Point {
	points := make([]Point, 0, len(frames))
	for _, f := range frames {
		if idx < 0 || idx >= len(f.X) || idx >= len(f.Y) {
			continue
		}
		points = append(points, Point{f.X[idx], f.Y[idx]})
	}
	return points
}

// PathLength is the distance travelled along points.
func PathLength(points []Point) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		dy := points[i].Y - points[i-1].Y
		total += math.Hypot(dx, dy)
	}
	return total
}

// PathToASCII plots points on a width x height grid. The start is drawn
// as 'o', the end as '@', axes where they cross the visible area.
func PathToASCII(points []Point, width, height int) string {
	if len(points) == 0 || width < 2 || height < 2 {
		return ""
	}

	// Find bounds
	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX = min(minX, p.X)
		maxX = max(maxX, p.X)
		minY = min(minY, p.Y)
		maxY = max(maxY, p.Y)
	}

	// Add padding
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}
	cell := func(p Point) (int, int) {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		return row, col
	}

	if minX <= 0 && maxX >= 0 {
		_, col := cell(Point{0, 0})
		for row := 0; row < height; row++ {
			grid[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row, _ := cell(Point{0, 0})
		for col := 0; col < width; col++ {
			if grid[row][col] == '│' {
				grid[row][col] = '┼'
			} else {
				grid[row][col] = '─'
			}
		}
	}

	for _, p := range points {
		row, col := cell(p)
		grid[row][col] = '•'
	}
	row, col := cell(points[0])
	grid[row][col] = 'o'
	row, col = cell(points[len(points)-1])
	grid[row][col] = '@'

	var sb strings.Builder
	for _, r := range grid {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}

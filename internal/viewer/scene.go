package viewer

// Scene constants mirror the physical board so the rendered object has the
// right proportions. World frame matches the board markings: X along
// length (forward), Y along width (left), Z perpendicular (up).
const (
	// Coordinate-frame axes: world axes 1.5x the board length, board axes
	// matching it.
	worldAxesLength = 0.045
	worldAxesRadius = 0.002
	boardAxesLength = 0.03
	boardAxesRadius = 0.001

	// Status-LED marker on the top surface, giving the otherwise symmetric
	// box a visible "front".
	ledSizeX   = 0.001
	ledSizeY   = 0.002
	ledSizeZ   = 0.001
	ledOffsetX = 0.013
	ledOffsetY = 0.005

	// Ground grid for reference.
	gridSize     = 0.3
	gridCellSize = 0.05
	gridOffsetZ  = -0.02
)

// Box is a cuboid in meters.
type Box struct {
	SizeX float64 `json:"sx"`
	SizeY float64 `json:"sy"`
	SizeZ float64 `json:"sz"`
	OffX  float64 `json:"ox"`
	OffY  float64 `json:"oy"`
	OffZ  float64 `json:"oz"`
}

// Scene describes the static 3D content sent to a client once on join.
// The client builds the scene from it and afterwards only applies pose
// updates.
type Scene struct {
	Board Box `json:"board"`
	LED   Box `json:"led"`

	WorldAxesLength float64 `json:"world_axes_length"`
	WorldAxesRadius float64 `json:"world_axes_radius"`
	BoardAxesLength float64 `json:"board_axes_length"`
	BoardAxesRadius float64 `json:"board_axes_radius"`

	GridSize     float64 `json:"grid_size"`
	GridCellSize float64 `json:"grid_cell_size"`
	GridOffsetZ  float64 `json:"grid_offset_z"`
}

// NewScene builds the scene for a board with the given dimensions (meters:
// length along X, width along Y, height along Z).
func NewScene(length, width, height float64) Scene {
	return Scene{
		Board: Box{SizeX: length, SizeY: width, SizeZ: height},
		LED: Box{
			SizeX: ledSizeX, SizeY: ledSizeY, SizeZ: ledSizeZ,
			OffX: ledOffsetX, OffY: ledOffsetY,
			OffZ: height/2 + ledSizeZ/2, // sits on the top surface
		},
		WorldAxesLength: worldAxesLength,
		WorldAxesRadius: worldAxesRadius,
		BoardAxesLength: boardAxesLength,
		BoardAxesRadius: boardAxesRadius,
		GridSize:        gridSize,
		GridCellSize:    gridCellSize,
		GridOffsetZ:     gridOffsetZ,
	}
}

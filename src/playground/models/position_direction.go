package models

type PositionDirection string

const (
	Long  PositionDirection = "long"
	Short PositionDirection = "short"
)

func (d PositionDirection) Opposite() PositionDirection {
	if d == Long {
		return Short
	}
	return Long
}

// PositionDirectionFor maps the direction of an open-purpose order to the
// direction of the exposure it creates.
func PositionDirectionFor(direction OrderDirection) PositionDirection {
	if direction == Buy {
		return Long
	}
	return Short
}

package world

// DropContained removes obstacles that are fully contained within another obstacle.
// Cylinders can be dropped for a containing cylinder or box, boxes only for a containing box.
// Of two identical obstacles the first is kept.
func DropContained(obstacles []Obstacle) []Obstacle {
	if len(obstacles) <= 1 {
		return obstacles
	}

	contained := make([]bool, len(obstacles))

	// Check each obstacle against all others
	for i := 0; i < len(obstacles); i++ {
		if contained[i] {
			continue
		}

		for j := 0; j < len(obstacles); j++ {
			if i == j || contained[j] {
				continue
			}

			// identical obstacles contain each other; keep the earlier one
			if isContainedIn(obstacles[i], obstacles[j]) && (j < i || !isContainedIn(obstacles[j], obstacles[i])) {
				contained[i] = true
				break
			}
		}
	}

	result := make([]Obstacle, 0, len(obstacles))
	for i, o := range obstacles {
		if !contained[i] {
			result = append(result, o)
		}
	}
	return result
}

// isContainedIn checks if obstacle a is fully contained within obstacle b
func isContainedIn(a, b Obstacle) bool {
	switch {
	case a.Kind == Cylinder && b.Kind == Cylinder:
		return distance(a.Center, b.Center)+a.Radius <= b.Radius
	case a.Kind == Cylinder && b.Kind == AABB:
		return isCylinderInBound(a.Center, a.Radius, b.Bound(0))
	case a.Kind == AABB && b.Kind == AABB:
		return isBoundContained(a.Bound(0), b.Bound(0))
	default:
		// box-in-cylinder is not checked
		return false
	}
}

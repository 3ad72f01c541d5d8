package engine

// SimpleSteps returns every empty playable neighbor of from, in offset order
func (b *Board) SimpleSteps(from Position) []Position {
	var steps []Position
	for _, off := range b.offsets {
		next := from.Add(off)
		if b.IsOpen(next) {
			steps = append(steps, next)
		}
	}
	return steps
}

// HopDestinations returns every cell reachable from `from` by a chain of one or
// more hops. A hop jumps over an adjacent occupied cell into the empty cell
// directly beyond it. The search is an explicit-stack depth-first traversal;
// cells in exclude (and from itself) are never landed on, and each cell is
// visited at most once, so the search terminates within the board size.
//
// The moving piece still sits on `from` while searching, but it cannot hop over
// itself, so `from` counts as empty when it is the cell being jumped.
func (b *Board) HopDestinations(from Position, exclude map[Position]bool) []Position {
	visited := map[Position]bool{from: true}
	for p := range exclude {
		visited[p] = true
	}

	var result []Position
	stack := []Position{from}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, off := range b.offsets {
			over := cur.Add(off)
			if over == from || !b.IsOccupied(over) {
				continue
			}
			land := over.Add(off)
			if visited[land] || !b.IsOpen(land) {
				continue
			}
			visited[land] = true
			result = append(result, land)
			stack = append(stack, land)
		}
	}

	return result
}

// LegalDestinations computes the destinations offered for a selected piece.
// With allowSimple the result is simple steps followed by hop-chain cells;
// otherwise it is hop-chain cells only. The result never contains from, any
// excluded cell, or duplicates. An empty result is not an error.
func (b *Board) LegalDestinations(from Position, allowSimple bool, exclude map[Position]bool) []Position {
	seen := make(map[Position]bool)
	var result []Position

	if allowSimple {
		for _, p := range b.SimpleSteps(from) {
			if exclude[p] || seen[p] {
				continue
			}
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, p := range b.HopDestinations(from, exclude) {
		if seen[p] {
			continue
		}
		seen[p] = true
		result = append(result, p)
	}

	return result
}

// IsNeighbor reports whether to is one step away from from
func (b *Board) IsNeighbor(from, to Position) bool {
	for _, off := range b.offsets {
		if from.Add(off) == to {
			return true
		}
	}
	return false
}

// containsPosition reports whether p is in list
func containsPosition(list []Position, p Position) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}

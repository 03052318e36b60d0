package services

import "github.com/dadanbeck/canvass/internal/models"

// Ordering math for sibling sets (sections of a survey, questions of a
// section or of the unassigned bucket). A scope holding k entities keeps
// positions exactly {0..k-1}; stored values are never trusted to be
// contiguous and are renormalized from sort order instead.

// clampIndex bounds a target index to [0, size].
func clampIndex(idx, size int) int {
	if idx < 0 {
		return 0
	}
	if idx > size {
		return size
	}
	return idx
}

// removeID returns ids without id, preserving order.
func removeID(ids []int, id int) []int {
	out := make([]int, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// insertAt inserts id into ids at idx, which must already be clamped.
func insertAt(ids []int, id, idx int) []int {
	out := make([]int, 0, len(ids)+1)
	out = append(out, ids[:idx]...)
	out = append(out, id)
	out = append(out, ids[idx:]...)
	return out
}

// spliceMove moves id to idx within ids. Equal target index inserts
// before the existing occupant.
func spliceMove(ids []int, id, idx int) []int {
	without := removeID(ids, id)
	return insertAt(without, id, clampIndex(idx, len(without)))
}

func sectionIDs(sections []models.Section) []int {
	ids := make([]int, len(sections))
	for i, s := range sections {
		ids[i] = s.ID
	}
	return ids
}

func questionIDs(questions []models.Question) []int {
	ids := make([]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

// sectionWrites diffs the desired order against stored positions and
// returns only the rows whose position actually changes.
func sectionWrites(sections []models.Section, order []int) []PositionWrite {
	stored := make(map[int]int, len(sections))
	for _, s := range sections {
		stored[s.ID] = s.Position
	}
	var writes []PositionWrite
	for i, id := range order {
		if pos, ok := stored[id]; !ok || pos != i {
			writes = append(writes, PositionWrite{ID: id, Position: i})
		}
	}
	return writes
}

// placementWrites diffs a bucket's desired order against stored
// placements; sectionID is the bucket every listed question ends up in.
func placementWrites(questions []models.Question, order []int, sectionID *int) []PlacementWrite {
	type placement struct {
		pos     int
		section *int
	}
	stored := make(map[int]placement, len(questions))
	for _, q := range questions {
		stored[q.ID] = placement{pos: q.Position, section: q.SectionID}
	}
	var writes []PlacementWrite
	for i, id := range order {
		cur, ok := stored[id]
		if ok && cur.pos == i && sameSection(cur.section, sectionID) {
			continue
		}
		writes = append(writes, PlacementWrite{ID: id, SectionID: sectionID, Position: i})
	}
	return writes
}

func sameSection(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

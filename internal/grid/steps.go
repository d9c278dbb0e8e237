package grid

import "image"

type opKind int

const (
	opAdd opKind = iota
	opSet
	opShift
)

// anchorOp mutates the anchor list. For opAdd the index is ignored and the
// point is appended.
type anchorOp struct {
	kind  opKind
	index int
	pt    image.Point
}

// slot places one cell at an offset from an anchor.
type slot struct {
	anchor int
	offset image.Point
}

type step struct {
	reslot  map[int]slot
	anchors []anchorOp
	slot    slot
}

// layoutSteps returns the push table for a canvas of side total and cells of
// side c. Entry i describes push i+1.
func layoutSteps(total, c int) [MaxItems]step {
	h := total / 2
	hc := c / 2
	pt := image.Pt

	return [MaxItems]step{
		{
			anchors: []anchorOp{{kind: opAdd, pt: pt(h-hc, h-hc)}},
			slot:    slot{anchor: 0},
		},
		{
			anchors: []anchorOp{{kind: opShift, index: 0, pt: pt(-hc, 0)}},
			slot:    slot{anchor: 0, offset: pt(c, 0)},
		},
		{
			anchors: []anchorOp{
				{kind: opShift, index: 0, pt: pt(0, -hc)},
				{kind: opAdd, pt: pt(h-hc, h)},
			},
			slot: slot{anchor: 1},
		},
		{
			anchors: []anchorOp{{kind: opSet, index: 1, pt: pt(h-c, h)}},
			slot:    slot{anchor: 1, offset: pt(c, 0)},
		},
		{
			anchors: []anchorOp{
				{kind: opSet, index: 0, pt: pt(h-c, 0)},
				{kind: opSet, index: 1, pt: pt(h-c, c)},
				{kind: opAdd, pt: pt(h-hc, 2*c)},
			},
			slot: slot{anchor: 2},
		},
		{
			anchors: []anchorOp{{kind: opShift, index: 2, pt: pt(-hc, 0)}},
			slot:    slot{anchor: 2, offset: pt(c, 0)},
		},
		{
			// Re-flow into three left-aligned rows. Earlier slots move, not
			// just their anchors.
			reslot: map[int]slot{
				2: {anchor: 0, offset: pt(2*c, 0)},
				3: {anchor: 1},
				4: {anchor: 1, offset: pt(c, 0)},
				5: {anchor: 1, offset: pt(2*c, 0)},
			},
			anchors: []anchorOp{
				{kind: opSet, index: 0, pt: pt(0, 0)},
				{kind: opSet, index: 1, pt: pt(0, c)},
				{kind: opSet, index: 2, pt: pt(0, 2*c)},
			},
			slot: slot{anchor: 2},
		},
		{
			anchors: []anchorOp{{kind: opSet, index: 2, pt: pt(h-c, total-c)}},
			slot:    slot{anchor: 2, offset: pt(c, 0)},
		},
		{
			anchors: []anchorOp{{kind: opSet, index: 2, pt: pt(0, total-c)}},
			slot:    slot{anchor: 2, offset: pt(2*c, 0)},
		},
	}
}

package grid

import "image"

// MaxItems is the largest number of cells a Packer places.
const MaxItems = 9

// Packer partitions a square canvas into up to MaxItems square cells.
//
// Rect coordinates use a bottom-left origin with y growing upwards; use
// ImageRect for Go's top-left image space.
type Packer struct {
	totalSize int
	cellSize  int
	steps     [MaxItems]step
	anchors   []image.Point
	slots     []slot
}

// New builds the layout for itemCount cells on a canvas of side totalSize.
// Counts above MaxItems are clamped; callers drop or batch the excess.
func New(totalSize, itemCount int) *Packer {
	n := min(itemCount, MaxItems)

	cell := totalSize / 3
	if n <= 4 {
		cell = totalSize / 2
	}

	p := &Packer{
		totalSize: totalSize,
		cellSize:  cell,
		steps:     layoutSteps(totalSize, cell),
		anchors:   make([]image.Point, 0, 3),
		slots:     make([]slot, 0, max(n, 0)),
	}
	for i := 0; i < n; i++ {
		p.Push()
	}
	return p
}

// Push places the next cell, possibly moving cells placed earlier. It
// reports false and changes nothing once MaxItems cells are placed.
func (p *Packer) Push() bool {
	if len(p.slots) == MaxItems {
		return false
	}
	p.apply(p.steps[len(p.slots)])
	return true
}

func (p *Packer) apply(s step) {
	for i, sl := range s.reslot {
		p.slots[i] = sl
	}
	for _, op := range s.anchors {
		switch op.kind {
		case opAdd:
			p.anchors = append(p.anchors, op.pt)
		case opSet:
			p.anchors[op.index] = op.pt
		case opShift:
			p.anchors[op.index] = p.anchors[op.index].Add(op.pt)
		}
	}
	p.slots = append(p.slots, s.slot)
}

// Rect returns the cell for item index. Indices outside [0, Len()) yield a
// zero-area rectangle positioned at (TotalSize, TotalSize).
func (p *Packer) Rect(index int) image.Rectangle {
	if index < 0 || index >= len(p.slots) {
		return p.sentinel()
	}
	sl := p.slots[index]
	pos := p.anchors[sl.anchor].Add(sl.offset)
	return image.Rectangle{Min: pos, Max: pos.Add(image.Pt(p.cellSize, p.cellSize))}
}

// ImageRect is Rect mirrored vertically so that it can be drawn directly
// into an image of side TotalSize.
func (p *Packer) ImageRect(index int) image.Rectangle {
	r := p.Rect(index)
	if r.Empty() {
		return r
	}
	return image.Rect(r.Min.X, p.totalSize-r.Max.Y, r.Max.X, p.totalSize-r.Min.Y)
}

// Rects returns every placed cell in push order.
func (p *Packer) Rects() []image.Rectangle {
	out := make([]image.Rectangle, len(p.slots))
	for i := range p.slots {
		out[i] = p.Rect(i)
	}
	return out
}

func (p *Packer) sentinel() image.Rectangle {
	return image.Rect(p.totalSize, p.totalSize, p.totalSize, p.totalSize)
}

// Len returns the number of placed cells.
func (p *Packer) Len() int { return len(p.slots) }

// CellSize returns the side of every cell.
func (p *Packer) CellSize() int { return p.cellSize }

// TotalSize returns the side of the canvas.
func (p *Packer) TotalSize() int { return p.totalSize }

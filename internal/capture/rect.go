package capture

import (
	"fmt"
	"image"
	"math"
)

// DirtyRect is the bounding box of the words that changed in one tick, in
// pixel coordinates. MaxX is the x of the last changed word, not its end.
type DirtyRect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// EmptyRect returns the sentinel for a tick with no changes.
func EmptyRect() DirtyRect {
	return DirtyRect{MinX: math.MaxInt, MinY: math.MaxInt, MaxX: -1, MaxY: -1}
}

// Empty reports whether no word was added.
func (r DirtyRect) Empty() bool {
	return r.MinX == math.MaxInt
}

func (r *DirtyRect) add(x, y int) {
	if x < r.MinX {
		r.MinX = x
	}
	if x > r.MaxX {
		r.MaxX = x
	}
	if y < r.MinY {
		r.MinY = y
	}
	if y > r.MaxY {
		r.MaxY = y
	}
}

// Bounds widens the box to whole words and rows, giving the region to mark
// as modified: [MinX, MaxX+pixelsPerWord) x [MinY, MaxY+1).
func (r DirtyRect) Bounds(pixelsPerWord int) image.Rectangle {
	if r.Empty() {
		return image.Rectangle{}
	}
	return image.Rect(r.MinX, r.MinY, r.MaxX+pixelsPerWord, r.MaxY+1)
}

func (r DirtyRect) String() string {
	if r.Empty() {
		return "empty"
	}
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.MinX, r.MinY, r.MaxX, r.MaxY)
}

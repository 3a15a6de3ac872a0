package itinerary

// DragState is the phase of an interactive drag gesture.
type DragState int

const (
	DragIdle DragState = iota
	DragDragging
)

func (s DragState) String() string {
	if s == DragDragging {
		return "dragging"
	}
	return "idle"
}

// Slot addresses a drop position: a day and a slot index within it.
type Slot struct {
	Day  int `json:"day"`
	Stop int `json:"stop"`
}

// DragSession tracks one drag gesture. It is a value: every transition
// returns a new session and leaves the receiver untouched. A session must not
// be shared between concurrent gestures.
type DragSession struct {
	state     DragState
	source    Slot
	original  Itinerary
	target    *Slot
	preview   Itinerary
	annotator Annotator
}

// StartDrag captures original and the dragged stop. If the source does not
// address a stop the returned session stays idle.
func StartDrag(original Itinerary, day, stop int) DragSession {
	return DefaultAnnotator().StartDrag(original, day, stop)
}

// StartDrag is StartDrag with previews annotated by a.
func (a Annotator) StartDrag(original Itinerary, day, stop int) DragSession {
	if !original.hasStop(day, stop) {
		return DragSession{state: DragIdle, original: original, preview: original, annotator: a}
	}
	return DragSession{
		state:     DragDragging,
		source:    Slot{Day: day, Stop: stop},
		original:  original,
		preview:   original,
		annotator: a,
	}
}

func (s DragSession) State() DragState    { return s.state }
func (s DragSession) Source() Slot        { return s.source }
func (s DragSession) Original() Itinerary { return s.original }
func (s DragSession) Preview() Itinerary  { return s.preview }

// Target returns the currently hovered slot, or nil.
func (s DragSession) Target() *Slot {
	if s.target == nil {
		return nil
	}
	t := *s.target
	return &t
}

// Move updates the hovered slot and returns the preview to display. The
// preview is recomputed from the original snapshot, and only when the target
// actually changes. A nil target, or one on a day that does not exist, shows
// the original.
func (s DragSession) Move(target *Slot) (DragSession, Itinerary) {
	if s.state != DragDragging {
		return s, s.original
	}
	target = s.droppable(target)
	if sameSlot(s.target, target) {
		return s, s.preview
	}
	next := s
	next.target = copySlot(target)
	next.preview = s.apply(target)
	return next, next.preview
}

// End finishes the gesture. With a target the move is committed against the
// original snapshot; without one the gesture is cancelled and the original is
// returned. Dropping on a day that does not exist also cancels. The returned
// session is idle and the bool reports a commit.
func (s DragSession) End(target *Slot) (DragSession, Itinerary, bool) {
	if s.state != DragDragging {
		return s, s.original, false
	}
	target = s.droppable(target)
	idle := DragSession{state: DragIdle, annotator: s.annotator}
	if target == nil {
		idle.original, idle.preview = s.original, s.original
		return idle, s.original, false
	}
	result := s.apply(target)
	idle.original, idle.preview = result, result
	return idle, result, true
}

func (s DragSession) apply(target *Slot) Itinerary {
	if target == nil {
		return s.original
	}
	moved := MoveStop(s.original, s.source.Day, s.source.Stop, target.Day, target.Stop)
	return s.annotator.Reannotate(moved)
}

// CanDrop reports whether target addresses a day of the original itinerary.
// Slot indices are clamped, so only the day can be out of range.
func (s DragSession) CanDrop(target Slot) bool {
	return s.original.hasDay(target.Day)
}

func (s DragSession) droppable(target *Slot) *Slot {
	if target == nil || !s.CanDrop(*target) {
		return nil
	}
	return target
}

func sameSlot(a, b *Slot) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copySlot(s *Slot) *Slot {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

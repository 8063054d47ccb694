package input

// Segment holds a control state for a number of ticks.
type Segment struct {
	Ticks int `json:"ticks"`
	Raw   Raw `json:"raw"`
}

// Script replays segments in order, then idles. Jump edges are derived from
// the raw levels, so two adjacent segments that both hold jump produce a
// single press.
type Script struct {
	segments []Segment
	index    int
	elapsed  int
	sampler  Sampler
}

// NewScript copies segments; non-positive durations are skipped.
func NewScript(segments ...Segment) *Script {
	kept := make([]Segment, 0, len(segments))
	for _, s := range segments {
		if s.Ticks > 0 {
			kept = append(kept, s)
		}
	}
	return &Script{segments: kept}
}

// Poll returns the next frame.
func (s *Script) Poll() Frame {
	if s.Done() {
		return s.sampler.Sample(Raw{})
	}
	seg := s.segments[s.index]
	frame := s.sampler.Sample(seg.Raw)

	s.elapsed++
	if s.elapsed >= seg.Ticks {
		s.index++
		s.elapsed = 0
	}
	return frame
}

// Done reports whether every segment has been played.
func (s *Script) Done() bool {
	return s.index >= len(s.segments)
}

// Len returns the total scripted ticks.
func (s *Script) Len() int {
	n := 0
	for _, seg := range s.segments {
		n += seg.Ticks
	}
	return n
}

// Rewind restarts from the first segment.
func (s *Script) Rewind() {
	s.index = 0
	s.elapsed = 0
	s.sampler = Sampler{}
}

package gwt

// Stream is a read head over an envelope's data stack. The position starts
// at the top (len(data)) and every pop moves it down; reading past the
// bottom latches ErrUnderflow and all further reads return zero values, in
// the manner of bufio.Scanner.
type Stream struct {
	data    []any
	strings []string
	pos     int
	err     error
}

// NewStream positions the read head at the top of the stack.
func NewStream(env *Envelope) *Stream {
	return NewStreamAt(env, len(env.Data))
}

// NewStreamAt positions the read head at pos, so the first pop returns
// data[pos-1]. The scanner uses this to decode from a class-marker slot.
func NewStreamAt(env *Envelope, pos int) *Stream {
	if pos < 0 {
		pos = 0
	}
	if pos > len(env.Data) {
		pos = len(env.Data)
	}
	return &Stream{data: env.Data, strings: env.Strings, pos: pos}
}

// Err returns the latched read error, if any.
func (s *Stream) Err() error { return s.err }

// Pos returns the current stack position.
func (s *Stream) Pos() int { return s.pos }

// Pop removes and returns the value below the read head.
func (s *Stream) Pop() any {
	if s.err != nil {
		return nil
	}
	if s.pos == 0 {
		s.err = ErrUnderflow
		return nil
	}
	s.pos--
	return s.data[s.pos]
}

// Peek returns the value offset slots below the read head without moving
// it, or nil when that slot is out of range.
func (s *Stream) Peek(offset int) any {
	idx := s.pos - 1 - offset
	if idx < 0 || idx >= len(s.data) {
		return nil
	}
	return s.data[idx]
}

// PopInt pops a value and coerces it to an integer; non-numeric values
// yield zero.
func (s *Stream) PopInt() int64 {
	switch v := s.Pop().(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// PopFloat pops a numeric value as a float.
func (s *Stream) PopFloat() float64 {
	switch v := s.Pop().(type) {
	case int64:
		return float64(v)
	case float64:
		return v
	default:
		return 0
	}
}

// ReadString pops one value and resolves it against the string table.
// Indexes are 1-based; zero, negative, and out-of-range values read as the
// empty string.
func (s *Stream) ReadString() string {
	v := s.PopInt()
	if v >= 1 && v <= int64(len(s.strings)) {
		return s.strings[v-1]
	}
	return ""
}

// ReadBool pops one value and applies JavaScript truthiness.
func (s *Stream) ReadBool() bool {
	switch v := s.Pop().(type) {
	case bool:
		return v
	case int64:
		return v != 0
	case float64:
		return v != 0
	case string:
		return v != ""
	default:
		return false
	}
}

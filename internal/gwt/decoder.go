package gwt

import (
	"strings"

	"github.com/rs/zerolog"
)

// Decoder reads objects off a Stream. Decoded objects are cached in
// appearance order so negative stack values can refer back to them.
type Decoder struct {
	s     *Stream
	cache []any
	log   zerolog.Logger
}

// NewDecoder wraps a stream with an empty object cache.
func NewDecoder(s *Stream, log zerolog.Logger) *Decoder {
	return &Decoder{s: s, log: log}
}

// Stream returns the underlying stream, mainly so callers can check Err.
func (d *Decoder) Stream() *Stream { return d.s }

// isClassMarker reports whether a table string names a serialized class:
// a dotted package path, one slash, and an all-digit signature hash.
func isClassMarker(s string) bool {
	slash := strings.IndexByte(s, '/')
	if slash <= 0 || strings.IndexByte(s[slash+1:], '/') >= 0 {
		return false
	}
	if !strings.Contains(s[:slash], ".") {
		return false
	}
	hash := s[slash+1:]
	if hash == "" {
		return false
	}
	for i := 0; i < len(hash); i++ {
		if hash[i] < '0' || hash[i] > '9' {
			return false
		}
	}
	return true
}

// ReadObject pops one value and interprets it: negative values are
// back-references into the object cache, zero is null, positive values
// index the string table. A table entry that is not a class marker is
// returned as the raw integer; a marker dispatches to its reader, with the
// cache slot reserved before the reader runs so nested back-references
// land on the right index.
func (d *Decoder) ReadObject() any {
	var b int64
	switch v := d.s.Pop().(type) {
	case int64:
		b = v
	case float64:
		b = int64(v)
	default:
		return nil
	}

	if b < 0 {
		idx := -(b + 1)
		if idx >= 0 && idx < int64(len(d.cache)) {
			return d.cache[idx]
		}
		d.log.Debug().Int64("ref", b).Int("cache_size", len(d.cache)).
			Msg("undefined back-reference")
		return nil
	}

	if b == 0 || b > int64(len(d.s.strings)) {
		return nil
	}

	class := d.s.strings[b-1]
	if !isClassMarker(class) {
		return b
	}

	reader := lookupReader(class)
	if reader == nil {
		o := &Opaque{Class: class, Unknown: true}
		d.cache = append(d.cache, o)
		return o
	}

	idx := len(d.cache)
	d.cache = append(d.cache, nil)
	obj := reader(d, class)
	if err := d.s.Err(); err != nil {
		d.log.Debug().Err(err).Str("class", class).Int("pos", d.s.Pos()).
			Msg("reader hit end of stack")
	}
	d.cache[idx] = obj
	return obj
}

// lookupReader finds the registered reader whose class prefix is the
// longest match for the marker. Longest wins so nested types beat their
// enclosing class.
func lookupReader(class string) readerFunc {
	var (
		best    readerFunc
		bestLen int
	)
	for prefix, fn := range classReaders {
		if len(prefix) > bestLen && strings.HasPrefix(class, prefix) {
			best = fn
			bestLen = len(prefix)
		}
	}
	return best
}

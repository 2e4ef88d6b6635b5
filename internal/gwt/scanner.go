package gwt

import (
	"github.com/rs/zerolog"
)

// Class-marker prefixes the scanner looks up in the string table. The
// trailing slash keeps e.g. RessourceKey from matching the Ressource scan.
const (
	lessonMarkerPrefix     = "dk.uddata.model.skema.SkemaBegivenhed/"
	noteMarkerPrefix       = "dk.uddata.model.skemanoter.SkemaNote2/"
	assignmentMarkerPrefix = "dk.uddata.model.opgave.OpgaveElev/"
	resourceMarkerPrefix   = "dk.uddata.model.ressourcer.Ressource/"
)

// markerIndex returns the 1-based string-table index of the first entry
// with the given prefix, or 0 when the class does not occur.
func markerIndex(env *Envelope, prefix string) int64 {
	for i, s := range env.Strings {
		if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
			return int64(i + 1)
		}
	}
	return 0
}

// markerPositions returns every data-stack index holding the marker value.
func markerPositions(env *Envelope, marker int64) []int {
	var out []int
	for i, v := range env.Data {
		switch n := v.(type) {
		case int64:
			if n == marker {
				out = append(out, i)
			}
		case float64:
			if int64(n) == marker {
				out = append(out, i)
			}
		}
	}
	return out
}

// decodeAt runs a reader from a marker position with a fresh stream and
// object cache, so one bad instance cannot poison the next.
func decodeAt(env *Envelope, pos int, read readerFunc, log zerolog.Logger) (any, bool) {
	s := NewStreamAt(env, pos)
	d := NewDecoder(s, log)
	v := read(d, "")
	if err := s.Err(); err != nil {
		log.Debug().Err(err).Int("pos", pos).Msg("skipping truncated instance")
		return nil, false
	}
	return v, true
}

// ScanLessons finds every schedule-event marker and decodes each instance
// independently. Instances with no subject, rooms, or teachers are noise
// from partially reused stack slots and are dropped; duplicates are folded
// by (start time, subject, class).
func ScanLessons(env *Envelope, log zerolog.Logger) []*Lesson {
	marker := markerIndex(env, lessonMarkerPrefix)
	if marker == 0 {
		return nil
	}

	type key struct {
		start   int64
		subject string
		class   string
	}
	seen := make(map[key]bool)
	var out []*Lesson

	for _, pos := range markerPositions(env, marker) {
		v, ok := decodeAt(env, pos, readLesson, log)
		if !ok {
			continue
		}
		l := v.(*Lesson)
		if l.Subject == "" && len(l.Rooms) == 0 && len(l.Teachers) == 0 {
			continue
		}
		k := key{start: l.StartTime.Unix(), subject: l.Subject, class: l.ClassName}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, l)
	}
	return out
}

// ScanNotes finds every schedule-note marker and decodes each instance.
// Notes with no text are dropped; duplicates are folded by (date, class,
// plain text).
func ScanNotes(env *Envelope, log zerolog.Logger) []*Note {
	marker := markerIndex(env, noteMarkerPrefix)
	if marker == 0 {
		return nil
	}

	type key struct {
		date  int64
		class string
		text  string
	}
	seen := make(map[key]bool)
	var out []*Note

	for _, pos := range markerPositions(env, marker) {
		v, ok := decodeAt(env, pos, readNote, log)
		if !ok {
			continue
		}
		n := v.(*Note)
		if n.PlainText == "" && n.HTML == "" {
			continue
		}
		k := key{date: n.Date.Unix(), class: n.ClassName, text: n.PlainText}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, n)
	}
	return out
}

// ScanAssignmentDetails finds every per-student assignment marker and
// decodes each instance; duplicates are folded by (subject, title).
func ScanAssignmentDetails(env *Envelope, log zerolog.Logger) []*AssignmentDetail {
	marker := markerIndex(env, assignmentMarkerPrefix)
	if marker == 0 {
		return nil
	}

	type key struct {
		subject string
		title   string
	}
	seen := make(map[key]bool)
	var out []*AssignmentDetail

	for _, pos := range markerPositions(env, marker) {
		v, ok := decodeAt(env, pos, readAssignmentDetail, log)
		if !ok {
			continue
		}
		det := v.(*AssignmentDetail)
		if det.Subject == "" && det.Title == "" {
			continue
		}
		k := key{subject: det.Subject, title: det.Title}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, det)
	}
	return out
}

// ScanResources decodes every file record in a container listing. Records
// without a name or a positive file ID are dropped.
func ScanResources(env *Envelope, log zerolog.Logger) []*Resource {
	marker := markerIndex(env, resourceMarkerPrefix)
	if marker == 0 {
		return nil
	}

	var out []*Resource
	for _, pos := range markerPositions(env, marker) {
		v, ok := decodeAt(env, pos, readResource, log)
		if !ok {
			continue
		}
		r := v.(*Resource)
		if r.Name == "" || r.FileID <= 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// DecodeAssignments decodes the full hand-in list from the top of the
// stack. RowIndex is assigned over the complete decoded list so detail
// lookups stay stable regardless of later filtering.
func DecodeAssignments(env *Envelope, log zerolog.Logger) []*Assignment {
	d := NewDecoder(NewStream(env), log)
	root, ok := d.ReadObject().([]any)
	if !ok {
		return nil
	}

	var out []*Assignment
	for _, v := range root {
		a, ok := v.(*Assignment)
		if !ok {
			continue
		}
		a.RowIndex = len(out)
		out = append(out, a)
	}
	return out
}

// DecodeAssignment decodes a single hand-in response.
func DecodeAssignment(env *Envelope, log zerolog.Logger) *Assignment {
	d := NewDecoder(NewStream(env), log)
	a, _ := d.ReadObject().(*Assignment)
	return a
}

// DecodeLessonNote decodes the first note in a single-lesson note
// response, or nil when the lesson has none.
func DecodeLessonNote(env *Envelope, log zerolog.Logger) *Note {
	marker := markerIndex(env, noteMarkerPrefix)
	if marker == 0 {
		return nil
	}
	for _, pos := range markerPositions(env, marker) {
		if v, ok := decodeAt(env, pos, readNote, log); ok {
			return v.(*Note)
		}
	}
	return nil
}

package gwt

import (
	"fmt"
	"time"
)

// Class markers as they appear in live traffic. The hash suffix only has
// to look plausible; dispatch strips it.
const (
	arrayListClass  = "java.util.ArrayList/4159755760"
	integerClass    = "java.lang.Integer/3438268394"
	udateClass      = "dk.uddata.gwt.comm.shared.UDate/2314285719"
	lessonClass     = "dk.uddata.model.skema.SkemaBegivenhed/1521647894"
	roomClass       = "dk.uddata.model.skema.SkemaBegivenhed$LokalerISkema/1153801284"
	teacherClass    = "dk.uddata.model.skema.SkemaBegivenhed$MedarbejderISkema/2423526764"
	activityClass   = "dk.uddata.model.skema.SkemaBegivenhed$AktiviteterISkema/3231152798"
	noteClass       = "dk.uddata.model.skemanoter.SkemaNote2/1310792046"
	handinClass     = "dk.uddata.model.opgave.Aflevering/1170491523"
	detailClass     = "dk.uddata.model.opgave.OpgaveElev/2710136364"
	evaluationClass = "dk.uddata.model.opgave.AfleveringBedoemmelse/3701262912"
	statusClass     = "dk.uddata.model.opgave.AfleveringStatus/1081245747"
	resourceClass   = "dk.uddata.model.ressourcer.Ressource/3416788437"
)

// wire builds a fabricated envelope. Tokens are appended in the order a
// reader consumes them; env reverses them into stack layout so the first
// appended token is the first one popped.
type wire struct {
	strings []string
	index   map[string]int64
	tokens  []any
}

func newWire() *wire {
	w := &wire{index: make(map[string]int64)}
	// Live responses carry dozens of strings before the first class
	// marker. Reserving the low table slots keeps marker indexes from
	// colliding with small scalar tokens during marker scans.
	for i := 0; i < 32; i++ {
		w.intern(fmt.Sprintf("filler-%02d", i))
	}
	return w
}

// intern returns the 1-based table index for s, adding it on first use.
func (w *wire) intern(s string) int64 {
	if idx, ok := w.index[s]; ok {
		return idx
	}
	w.strings = append(w.strings, s)
	idx := int64(len(w.strings))
	w.index[s] = idx
	return idx
}

func (w *wire) push(vals ...any) {
	w.tokens = append(w.tokens, vals...)
}

// pushStr pushes a string-table reference; the empty string pushes the
// null index.
func (w *wire) pushStr(s string) {
	if s == "" {
		w.push(int64(0))
		return
	}
	w.push(w.intern(s))
}

func (w *wire) pushMarker(class string) {
	w.push(w.intern(class))
}

func (w *wire) pushNull() {
	w.push(int64(0))
}

func (w *wire) pushUDate(t time.Time) {
	w.pushMarker(udateClass)
	w.pushStr("UDate:")
	w.push(
		int64(t.Year()-1900),
		int64(int(t.Month())-1),
		int64(t.Day()),
		int64(t.Hour()),
		int64(t.Minute()),
		int64(t.Second()),
	)
}

func (w *wire) env() *Envelope {
	data := make([]any, len(w.tokens))
	for i, v := range w.tokens {
		data[len(w.tokens)-1-i] = v
	}
	strings := make([]string, len(w.strings))
	copy(strings, w.strings)
	return &Envelope{Data: data, Strings: strings, Version: 7}
}

// lessonSpec describes the fields a fabricated schedule event carries.
type lessonSpec struct {
	className string
	remark    string
	subject   string
	rooms     []string
	teachers  []string
	lessonID  int64
	start     time.Time
	end       time.Time
}

// pushLessonFields appends the 38 event fields in read order, without the
// leading class marker.
func (w *wire) pushLessonFields(l lessonSpec) {
	// a: activity list carrying the class name
	if l.className == "" {
		w.pushNull()
	} else {
		w.pushMarker(arrayListClass)
		w.push(int64(1))
		w.pushMarker(activityClass)
		w.push(int64(0), int64(0))
		w.pushStr("HOLD")
		w.pushStr(l.className)
		w.push(int64(0))
	}
	w.pushStr(l.remark) // c
	w.pushStr("")       // d
	w.push(int64(0))    // e bool
	w.push(int64(0))    // f
	w.pushNull()        // g
	w.pushNull()        // i
	w.push(int64(0))    // j
	w.pushNull()        // k
	w.push(int64(0))    // n bool
	w.pushNull()        // o
	w.pushNull()        // p
	w.push(int64(0))    // q
	w.pushNull()        // r
	w.push(int64(0))    // s
	w.pushStr(l.subject)
	w.push(int64(0)) // u bool
	w.push(int64(0)) // w

	// A: rooms
	w.pushMarker(arrayListClass)
	w.push(int64(len(l.rooms)))
	for i, name := range l.rooms {
		w.pushMarker(roomClass)
		w.push(int64(100 + i))
		w.pushStr(name)
		w.push(int64(0))
	}
	w.push(int64(0)) // B bool

	// C: teachers
	w.pushMarker(arrayListClass)
	w.push(int64(len(l.teachers)))
	for i, name := range l.teachers {
		w.pushMarker(teacherClass)
		w.push(int64(200 + i))
		w.pushStr(name)
		w.push(int64(0))
		w.pushNull()
	}
	w.push(int64(0)) // D bool
	w.pushStr("")    // F
	w.pushNull()     // G
	w.pushStr("")    // H
	w.push(int64(0)) // I bool
	w.pushStr("")    // J
	w.push(int64(0)) // K bool
	w.pushNull()     // L
	w.pushNull()     // M

	// N: lesson id as boxed Integer
	if l.lessonID != 0 {
		w.pushMarker(integerClass)
		w.push(l.lessonID)
	} else {
		w.pushNull()
	}
	w.pushNull() // O
	w.pushStr("")

	// Q then R: end before start
	if l.end.IsZero() {
		w.pushNull()
	} else {
		w.pushUDate(l.end)
	}
	if l.start.IsZero() {
		w.pushNull()
	} else {
		w.pushUDate(l.start)
	}
	w.pushNull()     // S
	w.push(int64(0)) // T
	w.push(int64(0)) // V bool
}

// pushLesson appends a complete marked event for scanner tests.
func (w *wire) pushLesson(l lessonSpec) {
	w.pushMarker(lessonClass)
	w.pushLessonFields(l)
}

// noteSpec describes a fabricated schedule note.
type noteSpec struct {
	id        int64
	className string
	hasFiles  bool
	plainText string
	html      string
	date      time.Time
}

func (w *wire) pushNoteFields(n noteSpec) {
	w.push(n.id)
	w.pushStr(n.className)
	w.push(int64(0))
	if n.hasFiles {
		w.push(int64(1))
	} else {
		w.push(int64(0))
	}
	w.pushStr(n.plainText)
	w.pushStr(n.html)
	w.pushStr("")
	w.pushStr("")
	w.pushNull()
	w.pushStr("")
	w.pushNull()
	if n.date.IsZero() {
		w.pushNull()
	} else {
		w.pushUDate(n.date)
	}
	w.pushNull()
	w.push(int64(0), int64(0))
	w.pushStr("")
}

func (w *wire) pushNote(n noteSpec) {
	w.pushMarker(noteClass)
	w.pushNoteFields(n)
}

// handinSpec describes a fabricated hand-in with its embedded detail.
type handinSpec struct {
	submitted     time.Time
	evaluated     time.Time
	grade         string
	containerID   int64
	statusOrdinal int64 // -1 omits the status object
	detail        detailSpec
}

type detailSpec struct {
	deadline     time.Time
	assignmentID int64
	className    string
	description  string
	budgetHours  float64
	spentHours   float64
	week         int64
	subject      string
	title        string
}

func (w *wire) pushDetailFields(det detailSpec) {
	if det.deadline.IsZero() {
		w.pushNull()
	} else {
		w.pushUDate(det.deadline)
	}
	w.push(det.assignmentID)
	w.pushStr(det.className)
	w.pushNull()
	w.pushStr(det.description)
	w.push(det.budgetHours, det.spentHours)
	w.pushNull()
	w.pushNull()
	w.push(det.week)
	w.pushNull()
	w.push(int64(0), int64(0))
	w.pushStr(det.subject)
	w.push(int64(0))
	w.pushStr(det.title)
	w.pushNull()
	w.pushNull() // start date
	w.pushNull()
	w.push(int64(0))
}

func (w *wire) pushHandin(h handinSpec) {
	w.pushMarker(handinClass)
	if h.submitted.IsZero() {
		w.pushNull()
	} else {
		w.pushUDate(h.submitted)
	}
	// evaluation
	w.pushMarker(evaluationClass)
	w.push(int64(1))
	if h.evaluated.IsZero() {
		w.pushNull()
	} else {
		w.pushUDate(h.evaluated)
	}
	w.pushStr("")
	w.pushStr(h.grade)
	w.push(int64(0))
	w.pushNull()
	w.pushNull()

	w.push(h.containerID)
	w.pushNull()
	w.pushNull()
	w.push(int64(0), int64(0))
	w.pushNull()
	w.pushMarker(detailClass)
	w.pushDetailFields(h.detail)
	w.pushNull()
	if h.statusOrdinal >= 0 {
		w.pushMarker(statusClass)
		w.push(h.statusOrdinal)
	} else {
		w.pushNull()
	}
	w.push(int64(0))
}

package gwt

import (
	"fmt"
	"time"
)

// readerFunc consumes one object's fields from the decoder's stream. The
// class marker itself has already been popped.
type readerFunc func(d *Decoder, class string) any

// classReaders maps class-name prefixes (marker minus signature hash) to
// readers. Dispatch picks the longest matching prefix, so nested types win
// over their enclosing class.
var classReaders map[string]readerFunc

func init() {
	classReaders = map[string]readerFunc{
		"java.util.ArrayList": readArrayList,
		"java.util.HashMap":   readHashMap,
		"java.lang.Integer":   readInteger,
		"java.lang.Boolean":   readBooleanObj,

		"dk.uddata.gwt.comm.shared.UDate": readUDate,

		"dk.uddata.model.skema.PersSkemaData":                          readPersSkemaData,
		"dk.uddata.model.skema.SkemaBegivenhed":                        readLesson,
		"dk.uddata.model.skema.SkemaBegivenhed$LokalerISkema":          readRoom,
		"dk.uddata.model.skema.SkemaBegivenhed$MedarbejderISkema":      readTeacherRef,
		"dk.uddata.model.skema.SkemaBegivenhed$AktiviteterISkema":      readActivity,
		"dk.uddata.model.skema.SkemaBegivenhed$Status":                 readEnum,
		"dk.uddata.model.skemanoter.SkemaNote2":                        readNote,
		"dk.uddata.model.skema.Aarstyp":                                readAarstyp,
		"dk.uddata.model.skema.Aarstyp$AarsagsType":                    readEnum,
		"dk.uddata.model.skema.Aarstyp$AmuKode":                        readEnum,
		"dk.uddata.model.skema.Aarstyp$Status":                         readEnum,
		"dk.uddata.model.skema.Frareg":                                 readFrareg,
		"dk.uddata.model.skema.Frareg$Status":                          readEnum,
		"dk.uddata.model.skema.Fravk":                                  readFravk,
		"dk.uddata.model.skema.Fravk$FravkStatus":                      readEnum,
		"dk.uddata.model.bruger.Skemaelev":                             readScheduleStudent,
		"dk.uddata.model.skema.SkemaUvfo":                              readSkemaUvfo,
		"dk.uddata.model.skema.SkemaTools$FravaStatus":                 readEnum,
		"dk.uddata.model.skema.SkemaTools$RegModel":                    readEnum,
		"dk.uddata.model.skema.SkemaTools$RegStatus":                   readEnum,
		"dk.uddata.model.opgave.Aflevering":                            readAssignment,
		"dk.uddata.model.opgave.OpgaveElev":                            readAssignmentDetail,
		"dk.uddata.model.opgave.AfleveringBedoemmelse":                 readEvaluation,
		"dk.uddata.model.opgave.AfleveringStatus":                      readEnum,
		"dk.uddata.model.opgave.BedoemmelsesForm":                      readEnum,
		"dk.uddata.model.bruger.Medarbejder":                           readStaff,
		"dk.uddata.model.bruger.Elev":                                  readStudent,
		"dk.uddata.gwt.comm.shared.user.RolleType":                     readEnum,
		"dk.uddata.model.undervisningsplan.UndervisningsforloebResume": readCourseRun,
	}
}

func asTime(v any) (time.Time, bool) {
	t, ok := v.(time.Time)
	return t, ok
}

func readArrayList(d *Decoder, _ string) any {
	n := d.s.PopInt()
	if n < 0 {
		n = 0
	}
	out := make([]any, 0, n)
	for i := int64(0); i < n; i++ {
		if d.s.Err() != nil {
			break
		}
		out = append(out, d.ReadObject())
	}
	return out
}

func readHashMap(d *Decoder, _ string) any {
	n := d.s.PopInt()
	out := make(map[string]any)
	for i := int64(0); i < n; i++ {
		if d.s.Err() != nil {
			break
		}
		key := d.ReadObject()
		val := d.ReadObject()
		if key != nil {
			out[fmt.Sprint(key)] = val
		}
	}
	return out
}

func readInteger(d *Decoder, _ string) any { return d.s.PopInt() }

func readBooleanObj(d *Decoder, _ string) any { return d.s.ReadBool() }

func readEnum(d *Decoder, class string) any {
	return &Enum{Class: class, Ordinal: d.s.PopInt()}
}

// readUDate decodes a wall-clock timestamp: the "UDate:" tag string, then
// year offset from 1900, zero-based month, day, hour, minute, second.
// Out-of-range components decode to nil rather than a wrapped date.
func readUDate(d *Decoder, _ string) any {
	d.s.Pop() // "UDate:" tag
	year := d.s.PopInt()
	month := d.s.PopInt()
	day := d.s.PopInt()
	hour := d.s.PopInt()
	minute := d.s.PopInt()
	second := d.s.PopInt()
	if d.s.Err() != nil {
		return nil
	}
	if month < 0 || month > 11 || day < 1 || day > 31 ||
		hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return nil
	}
	return time.Date(int(year)+1900, time.Month(month)+1, int(day),
		int(hour), int(minute), int(second), 0, time.UTC)
}

func readRoom(d *Decoder, _ string) any {
	r := &Room{}
	r.ID = d.s.PopInt()
	r.Name = d.s.ReadString()
	d.s.Pop()
	return r
}

func readTeacherRef(d *Decoder, _ string) any {
	t := &Teacher{}
	t.ID = d.s.PopInt()
	t.Name = d.s.ReadString()
	d.s.Pop()
	d.ReadObject()
	return t
}

func readActivity(d *Decoder, _ string) any {
	d.s.Pop()
	d.s.Pop()
	a := &Activity{}
	a.Kind = d.s.ReadString()
	a.ClassName = d.s.ReadString()
	d.s.Pop()
	return a
}

// readLesson decodes a SkemaBegivenhed; 38 fields, most of them discarded.
func readLesson(d *Decoder, _ string) any {
	l := &Lesson{}

	if acts, ok := d.ReadObject().([]any); ok {
		for _, v := range acts {
			if a, ok := v.(*Activity); ok && a.ClassName != "" {
				l.ClassName = a.ClassName
				break
			}
		}
	}

	if remark := d.s.ReadString(); remark != "" {
		l.Note = remark
	}
	d.s.ReadString()
	d.s.ReadBool()
	d.s.Pop()
	d.ReadObject()
	d.ReadObject()
	d.s.Pop()
	d.ReadObject()
	d.s.ReadBool()
	d.ReadObject()
	d.ReadObject()
	d.s.Pop()
	d.ReadObject()
	d.s.Pop()
	l.Subject = d.s.ReadString()
	d.s.ReadBool()
	d.s.Pop()

	if rooms, ok := d.ReadObject().([]any); ok {
		for _, v := range rooms {
			if r, ok := v.(*Room); ok && r.Name != "" {
				l.Rooms = append(l.Rooms, r.Name)
			}
		}
	}
	d.s.ReadBool()
	if staff, ok := d.ReadObject().([]any); ok {
		for _, v := range staff {
			if t, ok := v.(*Teacher); ok && t.Name != "" {
				l.Teachers = append(l.Teachers, t.Name)
			}
		}
	}
	d.s.ReadBool()
	d.s.ReadString()
	d.ReadObject()
	d.s.ReadString()
	d.s.ReadBool()
	d.s.ReadString()
	d.s.ReadBool()
	d.ReadObject()
	d.ReadObject()

	if id, ok := d.ReadObject().(int64); ok {
		l.LessonID = id
	}
	d.ReadObject()
	d.s.ReadString()
	if t, ok := asTime(d.ReadObject()); ok {
		l.EndTime = t
	}
	if t, ok := asTime(d.ReadObject()); ok {
		l.StartTime = t
	}
	d.ReadObject()
	d.s.Pop()
	d.s.ReadBool()

	return l
}

// readNote decodes a SkemaNote2; 16 fields.
func readNote(d *Decoder, _ string) any {
	n := &Note{}
	n.ID = d.s.PopInt()
	n.ClassName = d.s.ReadString()
	d.s.Pop()
	n.HasFiles = d.s.ReadBool()
	// The next two slots carry the note body twice: plain text first, then
	// the markup rendition. Live notes have been seen with either slot
	// empty, so consumers must fall back across both fields.
	n.PlainText = d.s.ReadString()
	n.HTML = d.s.ReadString()
	d.s.ReadString()
	d.s.ReadString()
	d.ReadObject()
	d.s.ReadString()
	d.ReadObject()
	if t, ok := asTime(d.ReadObject()); ok {
		n.Date = t
	}
	d.ReadObject()
	d.s.Pop()
	d.s.Pop()
	d.s.ReadString()
	return n
}

// readAssignment decodes an Aflevering and folds the embedded per-student
// record into the result.
func readAssignment(d *Decoder, _ string) any {
	a := &Assignment{StatusOrdinal: -1}

	if t, ok := asTime(d.ReadObject()); ok {
		a.SubmissionDate = t
		a.Submitted = true
	}
	if ev, ok := d.ReadObject().(*Evaluation); ok {
		a.Grade = ev.Grade
		a.Evaluated = !ev.Date.IsZero()
	}
	a.ContainerID = d.s.PopInt()
	d.ReadObject()
	d.ReadObject()
	d.s.ReadBool()
	d.s.ReadBool()
	d.ReadObject()
	if det, ok := d.ReadObject().(*AssignmentDetail); ok {
		a.AssignmentDetail = *det
	}
	d.ReadObject()
	if e, ok := d.ReadObject().(*Enum); ok {
		a.StatusOrdinal = e.Ordinal
	}
	d.s.ReadBool()

	return a
}

// readAssignmentDetail decodes an OpgaveElev; 20 fields. The deadline the
// portal displays is the leading date field, not the trailing one.
func readAssignmentDetail(d *Decoder, _ string) any {
	det := &AssignmentDetail{}

	if t, ok := asTime(d.ReadObject()); ok {
		det.Deadline = t
	}
	det.AssignmentID = d.s.PopInt()
	det.ClassName = d.s.ReadString()
	d.ReadObject()
	det.Description = d.s.ReadString()
	det.BudgetHours = d.s.PopFloat()
	det.SpentHours = d.s.PopFloat()
	d.ReadObject()
	d.ReadObject()
	det.WeekNumber = d.s.PopInt()
	d.ReadObject()
	d.s.Pop()
	d.s.Pop()
	det.Subject = d.s.ReadString()
	d.s.ReadBool()
	det.Title = d.s.ReadString()
	d.ReadObject()
	if t, ok := asTime(d.ReadObject()); ok {
		det.StartDate = t
	}
	d.ReadObject()
	d.s.ReadBool()

	return det
}

func readEvaluation(d *Decoder, _ string) any {
	ev := &Evaluation{}
	ev.ID = d.s.PopInt()
	if t, ok := asTime(d.ReadObject()); ok {
		ev.Date = t
	}
	d.s.ReadString()
	ev.Grade = d.s.ReadString()
	d.s.PopInt()
	d.ReadObject()
	d.ReadObject()
	return ev
}

// readResource decodes a Ressource file record. The class is not in the
// dispatch table because its name is a prefix of the RessourceKey and
// RessourceObjektType markers; the scanner calls this directly.
func readResource(d *Decoder, _ string) any {
	r := &Resource{}
	r.ContainerID = d.s.PopInt()
	r.Name = d.s.ReadString()
	r.FileID = d.s.PopInt()
	r.UUID = d.s.ReadString()
	d.ReadObject()
	return r
}

// readPersSkemaData decodes the schedule envelope object and surfaces the
// lesson list; the surrounding bookkeeping fields are consumed and dropped.
func readPersSkemaData(d *Decoder, _ string) any {
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	lessons := d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.s.Pop()
	d.s.Pop()
	d.s.Pop()
	d.s.Pop()
	d.s.Pop()
	d.ReadObject()
	d.s.ReadBool()
	d.s.Pop()
	d.s.Pop()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()

	if list, ok := lessons.([]any); ok {
		return list
	}
	return []any{}
}

func readAarstyp(d *Decoder, class string) any {
	d.ReadObject()
	d.ReadObject()
	d.s.Pop()
	d.ReadObject()
	d.s.ReadString()
	d.ReadObject()
	return &Opaque{Class: class}
}

func readFrareg(d *Decoder, class string) any {
	d.s.Pop()
	d.s.Pop()
	d.s.Pop()
	d.ReadObject()
	return &Opaque{Class: class}
}

func readFravk(d *Decoder, class string) any {
	d.s.ReadString()
	d.s.ReadString()
	d.s.ReadString()
	d.ReadObject()
	d.ReadObject()
	return &Opaque{Class: class}
}

func readScheduleStudent(d *Decoder, _ string) any {
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.s.ReadString()
	d.ReadObject()
	name := d.s.ReadString()
	d.ReadObject()
	d.s.ReadString()
	d.s.ReadString()
	return &User{Name: name}
}

func readSkemaUvfo(d *Decoder, class string) any {
	d.s.Pop()
	d.ReadObject()
	d.ReadObject()
	d.s.ReadString()
	d.s.Pop()
	d.ReadObject()
	d.s.ReadString()
	d.s.Pop()
	d.s.Pop()
	d.s.Pop()
	d.s.Pop()
	d.ReadObject()
	d.ReadObject()
	return &Opaque{Class: class}
}

// readUserBase consumes the 24 shared user fields and returns the name and
// initials slots.
func readUserBase(d *Decoder) (name, initials string) {
	d.ReadObject()
	d.ReadObject()
	d.s.ReadString()
	d.ReadObject()
	d.s.ReadString()
	d.s.ReadString()
	d.ReadObject()
	d.s.ReadString()
	initials = d.s.ReadString()
	d.ReadObject()
	name = d.s.ReadString()
	d.s.ReadString()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.s.ReadString()
	d.s.ReadString()
	d.s.ReadString()
	d.s.ReadString()
	return name, initials
}

func readStaff(d *Decoder, _ string) any {
	d.ReadObject()
	d.s.Pop()
	d.s.Pop()
	initials := d.s.ReadString()
	name, baseInitials := readUserBase(d)
	if initials == "" {
		initials = baseInitials
	}
	return &User{Name: name, Initials: initials}
}

func readStudent(d *Decoder, _ string) any {
	d.ReadObject()
	d.ReadObject()
	d.s.ReadBool()
	d.ReadObject()
	d.ReadObject()
	d.ReadObject()
	d.s.ReadBool()
	d.ReadObject()
	studentNumber := d.s.ReadString()
	d.ReadObject()
	d.s.ReadString()
	d.ReadObject()
	d.s.ReadBool()
	className := d.s.ReadString()
	d.ReadObject()
	name, initials := readUserBase(d)
	return &User{Name: name, Initials: initials, StudentNumber: studentNumber, ClassName: className}
}

func readCourseRun(d *Decoder, _ string) any {
	c := &CourseRun{}
	c.Title = d.s.ReadString()
	if t, ok := asTime(d.ReadObject()); ok {
		c.Start = t
	}
	if t, ok := asTime(d.ReadObject()); ok {
		c.End = t
	}
	return c
}

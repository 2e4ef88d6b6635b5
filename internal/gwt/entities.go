package gwt

import "time"

// Lesson is a single schedule event (SkemaBegivenhed). Times are wall-clock
// values as the institution publishes them; no zone conversion is applied.
type Lesson struct {
	LessonID  int64
	Subject   string
	ClassName string
	Teachers  []string
	Rooms     []string
	StartTime time.Time
	EndTime   time.Time

	// Note and Homework are filled in when schedule notes are joined onto
	// the lesson; the remark decoded from the event itself seeds Note.
	Note        string
	Homework    string
	HasHomework bool
	HasNote     bool
	HasFiles    bool
}

// Note is a teacher note attached to a schedule day (SkemaNote2).
type Note struct {
	ID        int64
	ClassName string
	HasFiles  bool
	PlainText string
	HTML      string
	Date      time.Time
}

// AssignmentDetail carries the per-student assignment record (OpgaveElev).
type AssignmentDetail struct {
	AssignmentID int64
	Subject      string
	Title        string
	Description  string
	ClassName    string
	BudgetHours  float64
	SpentHours   float64
	WeekNumber   int64
	StartDate    time.Time
	Deadline     time.Time
}

// Assignment is a formal hand-in (Aflevering) with its submission and
// evaluation state folded in from the embedded detail record.
type Assignment struct {
	AssignmentDetail

	// RowIndex is the position in the full decoded list; it is the handle
	// callers pass back to fetch details.
	RowIndex       int
	ContainerID    int64
	Submitted      bool
	SubmissionDate time.Time
	// StatusOrdinal is the AfleveringStatus ordinal (0 = open); -1 when the
	// server sent no status.
	StatusOrdinal int64
	Evaluated     bool
	Grade         string
}

// Evaluation is a teacher's grading record (AfleveringBedoemmelse).
type Evaluation struct {
	ID    int64
	Date  time.Time
	Grade string
}

// Resource is a file attached to a lesson or assignment container.
type Resource struct {
	ContainerID int64
	Name        string
	FileID      int64
	UUID        string
}

// Room is a schedule room reference.
type Room struct {
	ID   int64
	Name string
}

// Teacher is a schedule staff reference; Name holds the initials the wire
// carries.
type Teacher struct {
	ID   int64
	Name string
}

// Activity links a schedule event to a class/team.
type Activity struct {
	Kind      string
	ClassName string
}

// User covers the shared fields of staff and student records.
type User struct {
	Name          string
	Initials      string
	StudentNumber string
	ClassName     string
}

// CourseRun is a teaching-course summary (UndervisningsforloebResume).
type CourseRun struct {
	Title string
	Start time.Time
	End   time.Time
}

// Enum holds the ordinal of a serialized Java enum constant.
type Enum struct {
	Class   string
	Ordinal int64
}

// Opaque stands in for a class with no registered reader. Its fields are not
// consumed, so decoding continues from the marker with the payload intact.
type Opaque struct {
	Class   string
	Unknown bool
}

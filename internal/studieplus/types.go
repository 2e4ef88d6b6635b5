package studieplus

// View types returned by the service layer. Field names follow the JSON
// shape the tool surface exposes; dates are formatted Danish-style where a
// human reads them and ISO where a program does.

// LessonView is one schedule event as presented to the caller.
type LessonView struct {
	Time        string `json:"time"`
	Subject     string `json:"subject"`
	Teacher     string `json:"teacher"`
	Room        string `json:"room"`
	LessonID    int64  `json:"lesson_id,omitempty"`
	HasHomework bool   `json:"has_homework"`
	HasNote     bool   `json:"has_note"`
	HasFiles    bool   `json:"has_files"`
	Homework    string `json:"homework,omitempty"`
	Note        string `json:"note,omitempty"`
}

// HomeworkEntry pairs a subject with its homework text for a day listing.
type HomeworkEntry struct {
	Subject  string `json:"subject"`
	Homework string `json:"homework"`
}

// NoteEntry pairs a subject with a plain note for a day listing.
type NoteEntry struct {
	Subject string `json:"subject"`
	Note    string `json:"note"`
}

// AssignmentView is one row of the hand-in list.
type AssignmentView struct {
	RowIndex       int     `json:"row_index"`
	Subject        string  `json:"subject"`
	Title          string  `json:"title"`
	Deadline       string  `json:"deadline,omitempty"`
	Week           int64   `json:"week,omitempty"`
	Class          string  `json:"class,omitempty"`
	BudgetHours    float64 `json:"budget_hours,omitempty"`
	SpentHours     float64 `json:"spent_hours,omitempty"`
	Submitted      bool    `json:"submitted"`
	SubmissionDate string  `json:"submission_date,omitempty"`
}

// DayOverview is the full picture of one school day.
type DayOverview struct {
	Date        string           `json:"date"`
	Weekday     string           `json:"weekday"`
	Week        int              `json:"week"`
	Lessons     []LessonView     `json:"lessons"`
	Homework    []HomeworkEntry  `json:"homework"`
	Notes       []NoteEntry      `json:"notes"`
	Assignments []AssignmentView `json:"assignments_due"`
	FirstLesson *LessonSlot      `json:"first_lesson,omitempty"`
	LastLesson  *LessonSlot      `json:"last_lesson,omitempty"`
}

// LessonSlot is the compact per-lesson line in a week overview.
type LessonSlot struct {
	Time    string `json:"time"`
	Subject string `json:"subject"`
	Room    string `json:"room,omitempty"`
}

// DayLessons groups a weekday's lessons for the week overview.
type DayLessons struct {
	Date    string       `json:"date"`
	Weekday string       `json:"weekday"`
	Lessons []LessonSlot `json:"lessons"`
}

// WeekOverview summarizes one school week.
type WeekOverview struct {
	Week          int              `json:"week"`
	Days          []DayLessons     `json:"days"`
	LessonCount   int              `json:"lesson_count"`
	HomeworkCount int              `json:"homework_count"`
	NotesCount    int              `json:"notes_count"`
	Assignments   []AssignmentView `json:"assignments_due"`
}

// AssignmentFilter narrows the hand-in list.
type AssignmentFilter struct {
	// IncludeSubmitted keeps already handed-in and evaluated rows.
	IncludeSubmitted bool
	// DaysAhead drops rows with a deadline further out; zero means no cutoff.
	DaysAhead int
	// Subject is a case-insensitive substring match on the subject name.
	Subject string
}

// FileView is one downloadable file attached to a lesson or assignment.
type FileView struct {
	Name string `json:"name"`
	ID   int64  `json:"id"`
	URL  string `json:"url,omitempty"`
	UUID string `json:"uuid,omitempty"`
}

// AssignmentDetailView is the expanded view of a single hand-in.
type AssignmentDetailView struct {
	AssignmentView
	Description      string     `json:"description,omitempty"`
	SubmissionStatus string     `json:"submission_status"`
	Evaluated        bool       `json:"evaluated"`
	Grade            string     `json:"grade,omitempty"`
	ContainerID      int64      `json:"container_id,omitempty"`
	Files            []FileView `json:"files"`
}

// LessonFiles lists the files attached to one lesson together with its
// note, when present.
type LessonFiles struct {
	LessonID int64      `json:"lesson_id"`
	Files    []FileView `json:"files"`
	Note     *NoteView  `json:"note,omitempty"`
}

// NoteView is a lesson note as presented to the caller.
type NoteView struct {
	Text     string `json:"text"`
	HasFiles bool   `json:"has_files"`
}

// DownloadResult reports where a downloaded file landed on disk.
type DownloadResult struct {
	Path        string `json:"path"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// LoadResult carries a file's content inline. Text files come through
// verbatim; anything else is base64-encoded.
type LoadResult struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	IsText      bool   `json:"is_text"`
	Content     string `json:"content"`
	Size        int64  `json:"size"`
}

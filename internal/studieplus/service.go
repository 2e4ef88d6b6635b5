package studieplus

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/mboesen/studieplus-mcp/internal/gwt"
)

const (
	scheduleTTL    = 5 * time.Minute
	assignmentsTTL = 10 * time.Minute
	noteTTL        = 5 * time.Minute
)

// deadlineFormat is the human-facing timestamp layout.
const deadlineFormat = "02.01.2006 15:04"

// Transport is the portal surface the service consumes; *Client implements
// it, tests stub it.
type Transport interface {
	FetchSchedule(ctx context.Context, start, end time.Time) (*gwt.Envelope, error)
	FetchAssignments(ctx context.Context) (*gwt.Envelope, error)
	FetchAssignment(ctx context.Context, id int64) (*gwt.Envelope, error)
	FetchContainerFiles(ctx context.Context, kind ContainerKind, containerID int64) (*gwt.Envelope, error)
	FetchSignedURL(ctx context.Context, fileID int64) (string, error)
	FetchLessonNote(ctx context.Context, lessonID int64) (*gwt.Envelope, error)
	Download(ctx context.Context, fileURL string) ([]byte, string, error)
}

// ServiceOptions tunes a Service beyond its transport.
type ServiceOptions struct {
	Logger zerolog.Logger
	// DownloadDir is where DownloadFile writes; defaults to the OS temp dir.
	DownloadDir string
	// Now overrides the clock; tests use this.
	Now func() time.Time
	// ScheduleTTL, AssignmentsTTL, and NoteTTL override the cache windows
	// when positive.
	ScheduleTTL    time.Duration
	AssignmentsTTL time.Duration
	NoteTTL        time.Duration
	// KeepRepeatedFlags is passed through to the note join.
	KeepRepeatedFlags bool
}

// Service is the domain API on top of the raw portal transport. Decoded
// schedules, the hand-in list, and lesson notes are cached with short TTLs
// so a burst of tool calls does not hammer the portal.
type Service struct {
	transport Transport
	cache     *cache.Cache
	log       zerolog.Logger
	now       func() time.Time
	opts      ServiceOptions
}

func NewService(transport Transport, opts ServiceOptions) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ScheduleTTL <= 0 {
		opts.ScheduleTTL = scheduleTTL
	}
	if opts.AssignmentsTTL <= 0 {
		opts.AssignmentsTTL = assignmentsTTL
	}
	if opts.NoteTTL <= 0 {
		opts.NoteTTL = noteTTL
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = os.TempDir()
	}
	return &Service{
		transport: transport,
		cache:     cache.New(opts.ScheduleTTL, 10*time.Minute),
		log:       opts.Logger,
		now:       opts.Now,
		opts:      opts,
	}
}

// mondayOf returns midnight of the Monday of t's week.
func mondayOf(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	shift := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -shift)
}

// weekLessons returns the joined, sorted lessons for the week at the given
// offset from the current week.
func (s *Service) weekLessons(ctx context.Context, weekOffset int) ([]*gwt.Lesson, error) {
	key := fmt.Sprintf("schedule:%d", weekOffset)
	if v, ok := s.cache.Get(key); ok {
		return v.([]*gwt.Lesson), nil
	}

	monday := mondayOf(s.now()).AddDate(0, 0, 7*weekOffset)
	sunday := monday.AddDate(0, 0, 6)

	env, err := s.transport.FetchSchedule(ctx, monday, sunday)
	if err != nil {
		return nil, fmt.Errorf("fetch schedule: %w", err)
	}

	lessons := gwt.ScanLessons(env, s.log)
	notes := gwt.ScanNotes(env, s.log)
	lessons = AttachNotes(lessons, notes, JoinOptions{KeepRepeatedFlags: s.opts.KeepRepeatedFlags})

	// Events without a start time cannot be placed on the calendar.
	placed := lessons[:0]
	for _, l := range lessons {
		if !l.StartTime.IsZero() {
			placed = append(placed, l)
		}
	}
	lessons = placed

	s.cache.Set(key, lessons, s.opts.ScheduleTTL)
	s.log.Debug().Int("week_offset", weekOffset).Int("lessons", len(lessons)).Msg("decoded schedule")
	return lessons, nil
}

func lessonTimeRange(l *gwt.Lesson) string {
	if l.EndTime.IsZero() {
		return l.StartTime.Format("15:04")
	}
	return l.StartTime.Format("15:04") + "-" + l.EndTime.Format("15:04")
}

func lessonView(l *gwt.Lesson) LessonView {
	return LessonView{
		Time:        lessonTimeRange(l),
		Subject:     l.Subject,
		Teacher:     strings.Join(l.Teachers, ", "),
		Room:        strings.Join(l.Rooms, ", "),
		LessonID:    l.LessonID,
		HasHomework: l.HasHomework,
		HasNote:     l.HasNote,
		HasFiles:    l.HasFiles,
		Homework:    l.Homework,
		Note:        l.Note,
	}
}

func lessonSlot(v LessonView) *LessonSlot {
	return &LessonSlot{Time: v.Time, Subject: v.Subject, Room: v.Room}
}

// GetDayOverview assembles the full picture of one school day. An empty
// date means today; otherwise the date is ISO formatted (2006-01-02).
func (s *Service) GetDayOverview(ctx context.Context, date string) (*DayOverview, error) {
	target := s.now()
	if date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", date, target.Location())
		if err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		target = parsed
	}

	weekOffset := int(mondayOf(target).Sub(mondayOf(s.now())).Hours() / (24 * 7))
	lessons, err := s.weekLessons(ctx, weekOffset)
	if err != nil {
		return nil, err
	}

	_, week := target.ISOWeek()
	out := &DayOverview{
		Date:        target.Format("2006-01-02"),
		Weekday:     target.Weekday().String(),
		Week:        week,
		Lessons:     []LessonView{},
		Homework:    []HomeworkEntry{},
		Notes:       []NoteEntry{},
		Assignments: []AssignmentView{},
	}

	for _, l := range lessons {
		if !sameDay(l.StartTime, target) {
			continue
		}
		out.Lessons = append(out.Lessons, lessonView(l))
		if l.HasHomework && l.Homework != "" {
			out.Homework = append(out.Homework, HomeworkEntry{Subject: l.Subject, Homework: l.Homework})
		}
		if l.HasNote && l.Note != "" {
			out.Notes = append(out.Notes, NoteEntry{Subject: l.Subject, Note: l.Note})
		}
	}
	if len(out.Lessons) > 0 {
		out.FirstLesson = lessonSlot(out.Lessons[0])
		out.LastLesson = lessonSlot(out.Lessons[len(out.Lessons)-1])
	}

	// Hand-ins due on the day. A failed fetch degrades the overview rather
	// than sinking it.
	if all, err := s.assignmentList(ctx); err != nil {
		s.log.Warn().Err(err).Msg("assignment list unavailable for day overview")
	} else {
		for _, a := range all {
			if !assignmentOpen(a) || a.Deadline.IsZero() {
				continue
			}
			if sameDay(a.Deadline, target) {
				out.Assignments = append(out.Assignments, assignmentView(a))
			}
		}
	}
	return out, nil
}

// GetWeekOverview summarizes the week at the given offset from the current
// one: per-day lesson lists, counts, and hand-ins due within the week.
func (s *Service) GetWeekOverview(ctx context.Context, weekOffset int) (*WeekOverview, error) {
	lessons, err := s.weekLessons(ctx, weekOffset)
	if err != nil {
		return nil, err
	}

	monday := mondayOf(s.now()).AddDate(0, 0, 7*weekOffset)
	_, week := monday.ISOWeek()
	out := &WeekOverview{
		Week:        week,
		Days:        []DayLessons{},
		Assignments: []AssignmentView{},
	}

	for d := 0; d < 7; d++ {
		day := monday.AddDate(0, 0, d)
		entry := DayLessons{
			Date:    day.Format("2006-01-02"),
			Weekday: day.Weekday().String(),
			Lessons: []LessonSlot{},
		}
		for _, l := range lessons {
			if !sameDay(l.StartTime, day) {
				continue
			}
			entry.Lessons = append(entry.Lessons, LessonSlot{
				Time:    lessonTimeRange(l),
				Subject: l.Subject,
				Room:    strings.Join(l.Rooms, ", "),
			})
			out.LessonCount++
			if l.HasHomework {
				out.HomeworkCount++
			}
			if l.HasNote {
				out.NotesCount++
			}
		}
		if len(entry.Lessons) > 0 {
			out.Days = append(out.Days, entry)
		}
	}

	if all, err := s.assignmentList(ctx); err != nil {
		s.log.Warn().Err(err).Msg("assignment list unavailable for week overview")
	} else {
		weekEnd := monday.AddDate(0, 0, 7)
		for _, a := range all {
			if !assignmentOpen(a) || a.Deadline.IsZero() {
				continue
			}
			if !a.Deadline.Before(monday) && a.Deadline.Before(weekEnd) {
				out.Assignments = append(out.Assignments, assignmentView(a))
			}
		}
	}
	return out, nil
}

// assignmentList returns the full decoded hand-in list, cached.
func (s *Service) assignmentList(ctx context.Context) ([]*gwt.Assignment, error) {
	const key = "assignments"
	if v, ok := s.cache.Get(key); ok {
		return v.([]*gwt.Assignment), nil
	}

	env, err := s.transport.FetchAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch assignments: %w", err)
	}
	list := gwt.DecodeAssignments(env, s.log)
	s.cache.Set(key, list, s.opts.AssignmentsTTL)
	s.log.Debug().Int("assignments", len(list)).Msg("decoded hand-in list")
	return list, nil
}

// assignmentOpen reports whether a hand-in still awaits submission.
func assignmentOpen(a *gwt.Assignment) bool {
	if a.Submitted || a.Evaluated {
		return false
	}
	return a.StatusOrdinal == 0 || a.StatusOrdinal == -1
}

func assignmentView(a *gwt.Assignment) AssignmentView {
	v := AssignmentView{
		RowIndex:    a.RowIndex,
		Subject:     a.Subject,
		Title:       a.Title,
		Week:        a.WeekNumber,
		Class:       a.ClassName,
		BudgetHours: a.BudgetHours,
		SpentHours:  a.SpentHours,
		Submitted:   a.Submitted,
	}
	if !a.Deadline.IsZero() {
		v.Deadline = a.Deadline.Format(deadlineFormat)
	}
	if !a.SubmissionDate.IsZero() {
		v.SubmissionDate = a.SubmissionDate.Format(deadlineFormat)
	}
	return v
}

// GetAssignments returns the hand-in list, open rows only unless the
// filter says otherwise.
func (s *Service) GetAssignments(ctx context.Context, filter AssignmentFilter) ([]AssignmentView, error) {
	all, err := s.assignmentList(ctx)
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if filter.DaysAhead > 0 {
		cutoff = s.now().AddDate(0, 0, filter.DaysAhead)
	}
	subject := strings.ToLower(filter.Subject)

	out := []AssignmentView{}
	for _, a := range all {
		if !filter.IncludeSubmitted && !assignmentOpen(a) {
			continue
		}
		// A deadline window also excludes rows with no deadline at all.
		if !cutoff.IsZero() && (a.Deadline.IsZero() || a.Deadline.After(cutoff)) {
			continue
		}
		if subject != "" && !strings.Contains(strings.ToLower(a.Subject), subject) {
			continue
		}
		out = append(out, assignmentView(a))
	}
	return out, nil
}

// GetAssignmentDetail expands one hand-in row, including its attached
// files. Assignment files are listed without signed URLs; they are fetched
// on demand when a file is downloaded.
func (s *Service) GetAssignmentDetail(ctx context.Context, rowIndex int) (*AssignmentDetailView, error) {
	all, err := s.assignmentList(ctx)
	if err != nil {
		return nil, err
	}
	if rowIndex < 0 || rowIndex >= len(all) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrAssignmentNotFound, rowIndex, len(all))
	}
	a := all[rowIndex]

	status := "ikke afleveret"
	switch {
	case a.Evaluated:
		status = "bedømt"
	case a.Submitted:
		status = "afleveret"
	}

	desc := a.Description
	if strings.Contains(desc, "<") && strings.Contains(desc, ">") {
		desc = htmlToText(desc)
	}

	out := &AssignmentDetailView{
		AssignmentView:   assignmentView(a),
		Description:      desc,
		SubmissionStatus: status,
		Evaluated:        a.Evaluated,
		Grade:            a.Grade,
		ContainerID:      a.ContainerID,
		Files:            []FileView{},
	}

	if a.ContainerID > 0 {
		env, err := s.transport.FetchContainerFiles(ctx, ContainerAssignment, a.ContainerID)
		if err != nil {
			s.log.Warn().Err(err).Int64("container", a.ContainerID).Msg("assignment file listing failed")
		} else {
			for _, r := range gwt.ScanResources(env, s.log) {
				out.Files = append(out.Files, FileView{Name: r.Name, ID: r.FileID, UUID: r.UUID})
			}
		}
	}
	return out, nil
}

// GetLessonFiles lists a lesson's attached files with signed download URLs
// plus the lesson note, cached per lesson.
func (s *Service) GetLessonFiles(ctx context.Context, lessonID int64) (*LessonFiles, error) {
	key := fmt.Sprintf("lessonfiles:%d", lessonID)
	if v, ok := s.cache.Get(key); ok {
		return v.(*LessonFiles), nil
	}

	env, err := s.transport.FetchContainerFiles(ctx, ContainerLesson, lessonID)
	if err != nil {
		return nil, fmt.Errorf("fetch lesson files: %w", err)
	}

	out := &LessonFiles{LessonID: lessonID, Files: []FileView{}}
	for _, r := range gwt.ScanResources(env, s.log) {
		out.Files = append(out.Files, FileView{Name: r.Name, ID: r.FileID, UUID: r.UUID})
	}
	s.attachSignedURLs(ctx, out.Files)

	if noteEnv, err := s.transport.FetchLessonNote(ctx, lessonID); err != nil {
		s.log.Warn().Err(err).Int64("lesson", lessonID).Msg("lesson note fetch failed")
	} else if n := gwt.DecodeLessonNote(noteEnv, s.log); n != nil {
		text := n.PlainText
		if text == "" {
			text = htmlToText(n.HTML)
		}
		if text != "" || n.HasFiles {
			out.Note = &NoteView{Text: text, HasFiles: n.HasFiles}
		}
	}

	s.cache.Set(key, out, s.opts.NoteTTL)
	return out, nil
}

// resolveFile fetches a fresh signed URL for a file ID. Cached listings may
// hold expired URLs, so downloads always re-sign.
func (s *Service) resolveFile(ctx context.Context, fileID int64) (string, error) {
	u, err := s.transport.FetchSignedURL(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("sign file %d: %w", fileID, err)
	}
	return u, nil
}

// DownloadFile saves a file to the download directory and reports where it
// landed. The name is reduced to its base to keep writes inside the
// directory.
func (s *Service) DownloadFile(ctx context.Context, fileID int64, name string) (*DownloadResult, error) {
	u, err := s.resolveFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	body, contentType, err := s.transport.Download(ctx, u)
	if err != nil {
		return nil, err
	}

	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = fmt.Sprintf("file-%d", fileID)
	}
	path := filepath.Join(s.opts.DownloadDir, base)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	s.log.Info().Str("path", path).Int("bytes", len(body)).Msg("downloaded file")
	return &DownloadResult{Path: path, Size: int64(len(body)), ContentType: contentType}, nil
}

// LoadFile returns a file's content inline: verbatim for text types,
// base64 for everything else.
func (s *Service) LoadFile(ctx context.Context, fileID int64, name string) (*LoadResult, error) {
	u, err := s.resolveFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	body, contentType, err := s.transport.Download(ctx, u)
	if err != nil {
		return nil, err
	}

	out := &LoadResult{
		Name:        filepath.Base(name),
		ContentType: contentType,
		Size:        int64(len(body)),
	}
	if isTextContent(contentType) {
		out.IsText = true
		out.Content = string(body)
	} else {
		out.Content = base64.StdEncoding.EncodeToString(body)
	}
	return out, nil
}

func isTextContent(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.HasPrefix(ct, "text/") || strings.HasPrefix(ct, "application/json")
}

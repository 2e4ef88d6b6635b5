package studieplus

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mboesen/studieplus-mcp/internal/gwt"
)

// homeworkWord marks a note as homework rather than a plain announcement.
const homeworkWord = "lektier"

// JoinOptions tunes how schedule notes are attached to lessons.
type JoinOptions struct {
	// KeepRepeatedFlags leaves the note and homework flags set on every
	// lesson of a multi-block session instead of only the first one.
	KeepRepeatedFlags bool
}

// AttachNotes joins day-level teacher notes onto the lessons of the same
// class and date, splitting them into homework and plain notes. The
// returned slice is sorted by start time; lessons are mutated in place.
func AttachNotes(lessons []*gwt.Lesson, notes []*gwt.Note, opts JoinOptions) []*gwt.Lesson {
	type key struct {
		date  string
		class string
	}
	byDay := make(map[key][]*gwt.Note, len(notes))
	for _, n := range notes {
		if n.Date.IsZero() {
			continue
		}
		k := key{date: n.Date.Format("2006-01-02"), class: n.ClassName}
		byDay[k] = append(byDay[k], n)
	}

	for _, l := range lessons {
		if l.StartTime.IsZero() {
			continue
		}
		k := key{date: l.StartTime.Format("2006-01-02"), class: l.ClassName}
		for _, n := range byDay[k] {
			text := n.PlainText
			if text == "" {
				text = htmlToText(n.HTML)
			}
			if text == "" {
				continue
			}
			if isHomework(n) {
				l.HasHomework = true
				l.Homework = joinText(l.Homework, text)
			} else {
				l.HasNote = true
				l.Note = joinText(l.Note, text)
			}
			if n.HasFiles {
				l.HasFiles = true
			}
		}
	}

	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].StartTime.Before(lessons[j].StartTime)
	})

	if !opts.KeepRepeatedFlags {
		clearRepeatedFlags(lessons)
	}
	return lessons
}

func isHomework(n *gwt.Note) bool {
	return strings.Contains(strings.ToLower(n.PlainText), homeworkWord) ||
		strings.Contains(strings.ToLower(n.HTML), homeworkWord)
}

func joinText(existing, text string) string {
	if existing == "" {
		return text
	}
	if strings.Contains(existing, text) {
		return existing
	}
	return existing + "\n" + text
}

// clearRepeatedFlags drops the note and homework flags on the later blocks
// of a session that spans consecutive lessons of the same subject on the
// same day, so a double lesson does not show the same note twice.
func clearRepeatedFlags(lessons []*gwt.Lesson) {
	for i := 1; i < len(lessons); i++ {
		prev, cur := lessons[i-1], lessons[i]
		if cur.Subject == "" || cur.Subject != prev.Subject {
			continue
		}
		if !sameDay(prev.StartTime, cur.StartTime) {
			continue
		}
		cur.HasHomework = false
		cur.HasNote = false
		cur.Homework = ""
		cur.Note = ""
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// htmlToText strips markup from a note body, keeping the visible text with
// single spaces between fragments.
func htmlToText(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(parts, " ")
}

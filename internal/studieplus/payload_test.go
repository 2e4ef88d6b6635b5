package studieplus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

const testBase = "https://all.studieplus.dk"

func TestEncodeDate(t *testing.T) {
	d := time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "5|6|126|0|12|0|0|0|", encodeDate(d))

	dec := time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "5|6|125|11|31|0|0|0|", encodeDate(dec))
}

func TestSchedulePayload(t *testing.T) {
	start := time.Date(2026, time.January, 12, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.January, 18, 0, 0, 0, 0, time.UTC)

	want := "7|0|6|" +
		"https://all.studieplus.dk/skema/skema/|" +
		"83C0398D428292FBFA6ED34FEEEA605B|" +
		"dk.uddata.services.interfaces.SkemaService|" +
		"hentEgnePersSkemaData|" +
		"dk.uddata.gwt.comm.shared.UDate/2314285719|" +
		"UDate:|" +
		"1|2|3|4|2|5|5|" +
		"5|6|126|0|12|0|0|0|" +
		"5|6|126|0|18|0|0|0|"
	assert.Equal(t, want, schedulePayload(testBase, start, end))
}

func TestAssignmentsPayload(t *testing.T) {
	want := "7|0|4|" +
		"https://all.studieplus.dk/opgave/opgave/|" +
		"459B74E0E07134BC40784E117D837355|" +
		"dk.uddata.services.interfaces.OpgaveService|" +
		"getAlleAfleveringer|" +
		"1|2|3|4|0|"
	assert.Equal(t, want, assignmentsPayload(testBase))
}

func TestAssignmentPayload(t *testing.T) {
	want := "7|0|5|" +
		"https://all.studieplus.dk/opgave/opgave/|" +
		"459B74E0E07134BC40784E117D837355|" +
		"dk.uddata.services.interfaces.OpgaveService|" +
		"getAflevering|" +
		"I|" +
		"1|2|3|4|1|5|4711|"
	assert.Equal(t, want, assignmentPayload(testBase, 4711))
}

func TestContainerFilesPayload(t *testing.T) {
	lesson := containerFilesPayload(testBase, ContainerLesson, 100)
	assert.Contains(t, lesson, "https://all.studieplus.dk/skema/skema/|")
	assert.Contains(t, lesson, "findRessourcerPerContainer|")
	assert.Contains(t, lesson, "1|2|3|4|1|5|5|100|6|12|")

	handin := containerFilesPayload(testBase, ContainerAssignment, 8812)
	assert.Contains(t, handin, "https://all.studieplus.dk/opgave/opgave/|")
	assert.Contains(t, handin, "1|2|3|4|1|5|5|8812|6|5|")
}

func TestSignedURLPayload(t *testing.T) {
	want := "7|0|7|" +
		"https://all.studieplus.dk/skema/skema/|" +
		"09D4724C79CC98B839803FCB9CBF2218|" +
		"dk.uddata.services.interfaces.RessourceService|" +
		"hentRessourceUrl|" +
		"I|" +
		"java.lang.String/2004016611|" +
		"|" +
		"1|2|3|4|2|5|6|555|7|"
	assert.Equal(t, want, signedURLPayload(testBase, 555))
}

func TestLessonNotePayload(t *testing.T) {
	want := "7|0|5|" +
		"https://all.studieplus.dk/skema/skema/|" +
		"EB1BAA9F2AD8A53B59DC22F1082E0E1B|" +
		"dk.uddata.services.interfaces.SkemaNote2Service|" +
		"hentNoteForSkema|" +
		"I|" +
		"1|2|3|4|1|5|100|"
	assert.Equal(t, want, lessonNotePayload(testBase, 100))
}

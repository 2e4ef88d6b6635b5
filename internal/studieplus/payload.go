package studieplus

import (
	"fmt"
	"time"
)

// DefaultBaseURL is the shared portal host; school selection happens via
// cookies, not the hostname.
const DefaultBaseURL = "https://all.studieplus.dk"

// Permutation and service-interface hashes from the deployed GWT client
// bundle. They change when the portal redeploys; a mismatch surfaces as
// ErrStaleHashes on the first RPC.
const (
	skemaPermutation  = "B0742ABB769CAA45E3CD75BA219C6E04"
	opgavePermutation = "ED91C3E5761A98C33045A799A1B8B8B1"

	skemaServiceHash     = "83C0398D428292FBFA6ED34FEEEA605B"
	opgaveServiceHash    = "459B74E0E07134BC40784E117D837355"
	ressourceServiceHash = "09D4724C79CC98B839803FCB9CBF2218"
	skemaNoteServiceHash = "EB1BAA9F2AD8A53B59DC22F1082E0E1B"
)

// ContainerKind selects which container type a file listing targets.
type ContainerKind int

const (
	// ContainerLesson is the SKEMA resource container type.
	ContainerLesson ContainerKind = 12
	// ContainerAssignment is the OPGAVE resource container type.
	ContainerAssignment ContainerKind = 5
)

// encodeDate renders a date argument for the wire: year offset from 1900
// and zero-based month, midnight.
func encodeDate(t time.Time) string {
	return fmt.Sprintf("5|6|%d|%d|%d|0|0|0|", t.Year()-1900, int(t.Month())-1, t.Day())
}

func schedulePayload(base string, start, end time.Time) string {
	return "7|0|6|" +
		base + "/skema/skema/|" +
		skemaServiceHash + "|" +
		"dk.uddata.services.interfaces.SkemaService|" +
		"hentEgnePersSkemaData|" +
		"dk.uddata.gwt.comm.shared.UDate/2314285719|" +
		"UDate:|" +
		"1|2|3|4|2|5|5|" +
		encodeDate(start) +
		encodeDate(end)
}

func assignmentsPayload(base string) string {
	return "7|0|4|" +
		base + "/opgave/opgave/|" +
		opgaveServiceHash + "|" +
		"dk.uddata.services.interfaces.OpgaveService|" +
		"getAlleAfleveringer|" +
		"1|2|3|4|0|"
}

func assignmentPayload(base string, id int64) string {
	return "7|0|5|" +
		base + "/opgave/opgave/|" +
		opgaveServiceHash + "|" +
		"dk.uddata.services.interfaces.OpgaveService|" +
		"getAflevering|" +
		"I|" +
		fmt.Sprintf("1|2|3|4|1|5|%d|", id)
}

// containerFilesPayload lists a container's files. Lesson containers go
// through the skema module, assignment containers through opgave.
func containerFilesPayload(base string, kind ContainerKind, containerID int64) string {
	module := "skema"
	if kind == ContainerAssignment {
		module = "opgave"
	}
	return "7|0|6|" +
		base + "/" + module + "/" + module + "/|" +
		ressourceServiceHash + "|" +
		"dk.uddata.services.interfaces.RessourceService|" +
		"findRessourcerPerContainer|" +
		"dk.uddata.model.ressourcer.RessourceKey/785242658|" +
		"dk.uddata.model.ressourcer.RessourceObjektType/3745084519|" +
		fmt.Sprintf("1|2|3|4|1|5|5|%d|6|%d|", containerID, kind)
}

func signedURLPayload(base string, fileID int64) string {
	return "7|0|7|" +
		base + "/skema/skema/|" +
		ressourceServiceHash + "|" +
		"dk.uddata.services.interfaces.RessourceService|" +
		"hentRessourceUrl|" +
		"I|" +
		"java.lang.String/2004016611|" +
		"|" +
		fmt.Sprintf("1|2|3|4|2|5|6|%d|7|", fileID)
}

func lessonNotePayload(base string, lessonID int64) string {
	return "7|0|5|" +
		base + "/skema/skema/|" +
		skemaNoteServiceHash + "|" +
		"dk.uddata.services.interfaces.SkemaNote2Service|" +
		"hentNoteForSkema|" +
		"I|" +
		fmt.Sprintf("1|2|3|4|1|5|%d|", lessonID)
}

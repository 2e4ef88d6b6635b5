package gwt

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Envelope is a split GWT-RPC response: the data stack read top-down, the
// 1-based string table, and the trailing flags/version words.
type Envelope struct {
	Data    []any
	Strings []string
	Flags   int64
	Version int64
}

// ParseEnvelope splits a raw GWT-RPC response body. An //EX prefix yields a
// *RemoteException; anything that is not a JSON array of at least three
// elements with a string table in the third-from-last slot is malformed.
func ParseEnvelope(raw string) (*Envelope, error) {
	content := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(content, "//EX"):
		return nil, &RemoteException{Body: content}
	case strings.HasPrefix(content, "//OK"):
		content = content[4:]
	}

	parsed := gjson.Parse(content)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("%w: body is not a JSON array", ErrMalformedEnvelope)
	}

	elems := parsed.Array()
	if len(elems) < 3 {
		return nil, fmt.Errorf("%w: %d elements, need at least 3", ErrMalformedEnvelope, len(elems))
	}

	table := elems[len(elems)-3]
	if !table.IsArray() {
		return nil, fmt.Errorf("%w: no string table at expected position", ErrMalformedEnvelope)
	}

	env := &Envelope{
		Flags:   elems[len(elems)-2].Int(),
		Version: elems[len(elems)-1].Int(),
	}
	for _, s := range table.Array() {
		env.Strings = append(env.Strings, s.String())
	}
	env.Data = make([]any, 0, len(elems)-3)
	for _, e := range elems[:len(elems)-3] {
		env.Data = append(env.Data, normalize(e))
	}
	return env, nil
}

// normalize maps a JSON scalar onto the stack value model. Integral numbers
// become int64 so string-table indexes and back-references compare cleanly.
func normalize(r gjson.Result) any {
	switch r.Type {
	case gjson.Number:
		f := r.Float()
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case gjson.String:
		return r.Str
	case gjson.True:
		return true
	case gjson.False:
		return false
	default:
		return nil
	}
}

package gwt

import (
	"errors"
	"fmt"
)

// ErrUnderflow is reported when a reader pops past the bottom of the data
// stack. Once set on a Stream it is sticky; all subsequent reads fail.
var ErrUnderflow = errors.New("gwt: stack underflow")

// ErrMalformedEnvelope is reported when a payload is not a valid GWT-RPC
// response body.
var ErrMalformedEnvelope = errors.New("gwt: malformed envelope")

// RemoteException is returned when the server answers with an //EX envelope.
// The body is kept verbatim for diagnostics.
type RemoteException struct {
	Body string
}

func (e *RemoteException) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("gwt: remote exception: %s", body)
}

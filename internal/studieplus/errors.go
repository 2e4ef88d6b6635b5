package studieplus

import "errors"

// ErrAuthFailed is reported when the portal rejects the credentials or the
// post-login redirect does not land on a signed-in page.
var ErrAuthFailed = errors.New("studieplus: authentication failed")

// ErrSchoolNotFound is reported when the configured school name does not
// appear in the institution list on the landing page.
var ErrSchoolNotFound = errors.New("studieplus: school not found")

// ErrStaleHashes is reported when the server answers an RPC with an
// IncompatibleRemoteServiceException, meaning the compiled-in permutation
// or service hashes no longer match the deployed client bundle.
var ErrStaleHashes = errors.New("studieplus: serialization hashes out of date")

// ErrAssignmentNotFound is reported when a row index does not refer to a
// decoded assignment.
var ErrAssignmentNotFound = errors.New("studieplus: assignment not found")

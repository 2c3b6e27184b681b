package acquire

import "errors"

// ErrEngineClosed is returned by StartFileFetch once the engine has reached
// termination and its runner has stopped accepting new work.
var ErrEngineClosed = errors.New("acquire: engine closed")

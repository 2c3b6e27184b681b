package acquireproto

// Action names the RPC the engine asks the agent to perform. These are the
// only five actions the core ever issues.
type Action string

const (
	ActionStatFile       Action = "StatFile"
	ActionHashFile        Action = "HashFile"
	ActionFingerprintFile Action = "FingerprintFile"
	ActionHashBuffer      Action = "HashBuffer"
	ActionTransferBuffer  Action = "TransferBuffer"
)

// FingerprintRequest is the payload for HashFile/FingerprintFile: compute a
// composite hash over at most MaxFilesize bytes.
type FingerprintRequest struct {
	Pathspec    Pathspec
	MaxFilesize int64
}

// BufferRequest is the payload for HashBuffer: identify a byte range of the
// target file. TransferBuffer instead carries a BlockHashResponse.
type BufferRequest struct {
	Pathspec Pathspec
	Offset   int64
	Length   int64
}

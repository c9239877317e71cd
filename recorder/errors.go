package recorder

import "errors"

var (
	ErrPermissionDenied = errors.New("microphone permission denied or unavailable")
	ErrAlreadyRecording = errors.New("already recording")
)

// User-facing notices.
const (
	noticeAlreadyRecording = "Already recording"
	noticePermission       = "Microphone permission denied or unavailable"
	noticeStartFailed      = "Voice memo recording could not start"
	noticeSaveFailed       = "Voice memo could not be saved"
)

package service

import "errors"

// Sentinel errors surfaced to handlers, which map them onto HTTP statuses.
var (
	ErrEssayNotFound     = errors.New("essay not found")
	ErrAnswerKeyNotFound = errors.New("answer key not found")

	// ErrIllegalTransition rejects writes the grading state machine forbids,
	// e.g. annotating a SENT submission or finalizing a PENDING one.
	ErrIllegalTransition = errors.New("illegal grading state transition")

	// ErrIncompleteGrading rejects finalization of a submission that has
	// neither a computed score nor an annulment reason.
	ErrIncompleteGrading = errors.New("submission has no score to finalize")

	// ErrRubricMismatch rejects rubric payloads that do not match the
	// submission kind.
	ErrRubricMismatch = errors.New("rubric payload does not match submission kind")

	// ErrInvalidAnnotation rejects a malformed annotation draft. Bulk replace
	// in best-effort mode drops such drafts instead of returning this.
	ErrInvalidAnnotation = errors.New("invalid annotation draft")

	// ErrAnnotationLimit rejects writes that would exceed the per-submission
	// annotation cap.
	ErrAnnotationLimit = errors.New("annotation limit reached for submission")

	// ErrOmrAlreadyRunning reports that an optical-mark run is already in
	// flight for the submission.
	ErrOmrAlreadyRunning = errors.New("optical-mark analysis already in progress")

	// ErrUnsupportedMedia rejects scans whose detected content type is not a
	// PDF or a common raster image.
	ErrUnsupportedMedia = errors.New("unsupported scan media type")
)

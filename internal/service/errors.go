package service

import "errors"

var (
	// ErrModelNotTrained is returned when the training streams are empty or no model has been built yet
	ErrModelNotTrained = errors.New("hmm model not trained")

	// ErrDegenerateModel is returned when the vocabulary is empty and the smoothing fallback would divide by zero
	ErrDegenerateModel = errors.New("degenerate hmm model")

	// ErrUnknownTag is returned when a tag lookup falls outside the fitted tagset
	ErrUnknownTag = errors.New("unknown tag")

	// ErrMisalignedStreams is returned when the word and tag streams differ in length
	ErrMisalignedStreams = errors.New("word and tag streams are not aligned")

	// ErrStaleSnapshot is returned when a saved model was built with different model options than configured
	ErrStaleSnapshot = errors.New("hmm model snapshot is stale")
)

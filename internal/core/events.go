package core

import "encoding/json"

// EventKind identifies a discrete progress state of a review operation.
type EventKind string

const (
	// EventLoadingFirst is emitted before the first chunk is fetched.
	EventLoadingFirst EventKind = "loading-first"
	// EventLoadingContinuation is emitted before each subsequent chunk is fetched.
	EventLoadingContinuation EventKind = "loading-continuation"
	// EventPartial carries the accumulated improved code after each backend call.
	EventPartial EventKind = "partial"
	// EventSaved is emitted once the completed review has been persisted.
	EventSaved EventKind = "saved"
	// EventDone is the terminal success state.
	EventDone EventKind = "done"
	// EventError is the terminal failure state.
	EventError EventKind = "error"
)

// Terminal reports whether no further events follow k.
func (k EventKind) Terminal() bool {
	return k == EventDone || k == EventError
}

// Event is one element of the progress stream produced by a review operation.
type Event struct {
	Kind       EventKind
	ChunkIndex int
	ChunkCount int
	Feedback   string
	Code       string
	Record     *ReviewRecord
	Err        error
}

// MarshalJSON renders the event in the shape consumed by UI clients.
// Errors are flattened to their user-facing message.
func (e Event) MarshalJSON() ([]byte, error) {
	type wire struct {
		Kind       EventKind     `json:"kind"`
		ChunkIndex int           `json:"chunkIndex"`
		ChunkCount int           `json:"chunkCount"`
		Feedback   string        `json:"feedback,omitempty"`
		Code       string        `json:"code,omitempty"`
		Record     *ReviewRecord `json:"record,omitempty"`
		Message    string        `json:"message,omitempty"`
		Overloaded bool          `json:"overloaded,omitempty"`
	}
	w := wire{
		Kind:       e.Kind,
		ChunkIndex: e.ChunkIndex,
		ChunkCount: e.ChunkCount,
		Feedback:   e.Feedback,
		Code:       e.Code,
		Record:     e.Record,
	}
	if e.Err != nil {
		w.Message = UserMessage(e.Err)
		w.Overloaded = IsOverloaded(e.Err)
	}
	return json.Marshal(w)
}

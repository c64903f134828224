package intent

import "context"

// Recognizer decides whether the latest user utterance opens an incentive
// enquiry and should start slot collection.
type Recognizer interface {
	ShouldStartCollection(ctx context.Context, utterance string) (bool, error)
}

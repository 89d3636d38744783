package predict

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leyiUPM/emotion/pkg/adapter"
	"github.com/m-mizutani/goerr/v2"
)

// ErrPredictionFailed matches every error returned by Predict, Submit, Batch and SubmitBatch
var ErrPredictionFailed = goerr.New("prediction failed")

// UnreachableMessage is shown when no model endpoint answered
const UnreachableMessage = "Could not reach the model API. Start the backend on :8000 or set MODEL_API_URL."

// EnvelopeFallbackMessage is shown when the gateway reports a failure without an error text
const EnvelopeFallbackMessage = "Prediction failed."

// Failure is the single error kind of the use case. Line and Completed are set for
// batch failures only; Line is 1-based over the raw input.
type Failure struct {
	Err       error
	Line      int
	Completed int
}

func (f *Failure) Error() string {
	if f.Line > 0 {
		return fmt.Sprintf("prediction failed at line %d after %d completed: %v", f.Line, f.Completed, f.Err)
	}
	return fmt.Sprintf("prediction failed: %v", f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

func (f *Failure) Is(target error) bool {
	return target == ErrPredictionFailed
}

func asFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Err: err}
}

// Message returns the human readable text shown to users for err
func Message(err error) string {
	if err == nil {
		return ""
	}

	msg := causeMessage(err)

	var f *Failure
	if errors.As(err, &f) && f.Line > 0 {
		return fmt.Sprintf("Batch failed at line %d (%d completed, nothing saved): %s", f.Line, f.Completed, msg)
	}
	return msg
}

func causeMessage(err error) string {
	var envErr *adapter.EnvelopeError
	if errors.As(err, &envErr) {
		if msg := strings.TrimSpace(envErr.Message); msg != "" {
			return msg
		}
		return EnvelopeFallbackMessage
	}

	if errors.Is(err, adapter.ErrBackendUnreachable) {
		return UnreachableMessage
	}

	var be *adapter.BackendError
	if errors.As(err, &be) && be.StatusCode != 0 {
		if body := strings.TrimSpace(be.Body); body != "" {
			return body
		}
		return fmt.Sprintf("Prediction failed with status %d.", be.StatusCode)
	}

	if errors.Is(err, adapter.ErrInvalidResponse) {
		return "Prediction failed: the model API returned an invalid response."
	}

	return "Prediction failed. Make sure the backend is running on port 8000."
}

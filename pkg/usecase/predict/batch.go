package predict

import (
	"context"
	"strings"

	"github.com/leyiUPM/emotion/pkg/model"
	"github.com/leyiUPM/emotion/pkg/utils/logging"
)

// SplitLines splits a multi-line comment block into raw lines
func SplitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// Batch predicts every non-blank line in order, one request at a time. The first
// failure aborts the batch and every result is discarded. Results are returned in
// input order.
func (u *UseCase) Batch(ctx context.Context, lines []string, threshold float64, topK int) ([]*model.Prediction, error) {
	type entry struct {
		line int
		text string
	}

	var inputs []entry
	for i, l := range lines {
		if t := strings.TrimSpace(l); t != "" {
			inputs = append(inputs, entry{line: i + 1, text: t})
		}
	}
	if len(inputs) == 0 {
		return nil, nil
	}

	logger := logging.From(ctx)
	results := make([]*model.Prediction, 0, len(inputs))
	for i, in := range inputs {
		p, err := u.Predict(ctx, in.text, threshold, topK)
		if err != nil {
			failure := asFailure(err)
			failure.Line = in.line
			failure.Completed = i
			logger.Warn("batch aborted", "line", in.line, "completed", i, "total", len(inputs))
			return nil, failure
		}

		results = append(results, p)
		if u.progress != nil {
			u.progress(i+1, len(inputs))
		}
	}

	return results, nil
}

// SubmitBatch runs Batch and commits the whole block to the store only when every line
// succeeded.
func (u *UseCase) SubmitBatch(ctx context.Context, lines []string, threshold float64, topK int) ([]*model.Prediction, error) {
	results, err := u.Batch(ctx, lines, threshold, topK)
	if err != nil {
		return nil, err
	}

	u.store.AddMany(ctx, results)
	return results, nil
}

package watch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/open-policy-agent/opa/v1/rego"
)

const noticeQuery = "data.watch.notice"

// loadRules loads every Rego file in dir and prepares the notice query. It returns nil
// when dir has no rule files.
func loadRules(ctx context.Context, dir string) (*rego.PreparedEvalQuery, int, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.rego"))
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to glob rule files", goerr.V("dir", dir))
	}
	if len(files) == 0 {
		return nil, 0, nil
	}

	options := make([]func(*rego.Rego), 0, len(files)+2)
	options = append(options, rego.Query(noticeQuery), rego.EnablePrintStatements(true))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to read rule file", goerr.V("path", file))
		}
		options = append(options, rego.Module(file, string(data)))
	}

	prepared, err := rego.New(options...).PrepareForEval(ctx)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to prepare rules", goerr.V("dir", dir), goerr.V("query", noticeQuery))
	}

	return &prepared, len(files), nil
}

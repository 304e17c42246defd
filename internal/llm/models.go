package llm

import (
	"context"
	"fmt"
	"strings"
)

// ModelLister is implemented by every backend client.
type ModelLister interface {
	ListModels(ctx context.Context) ([]string, error)
}

// IsModelAvailable checks whether the server reports modelName.
// Ollama omits the ":latest" tag in requests but not in /api/tags, so both forms match.
func IsModelAvailable(ctx context.Context, lister ModelLister, modelName string) (bool, error) {
	models, err := lister.ListModels(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list models: %w", err)
	}

	want := normalizeModelName(modelName)
	for _, name := range models {
		if normalizeModelName(name) == want {
			return true, nil
		}
	}
	return false, nil
}

func normalizeModelName(name string) string {
	return strings.TrimSuffix(name, ":latest")
}

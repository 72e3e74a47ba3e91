package storage

import (
	"encoding/json"
	"fmt"

	"github.com/sevigo/review-ledger/internal/core"
)

// The structured columns always hold a well-formed JSON document. A nil
// slice or map is normalized to its empty form before marshaling, so an
// "issues" column can never contain SQL NULL or malformed text.

func marshalIssues(issues []core.Issue) ([]byte, error) {
	if issues == nil {
		issues = []core.Issue{}
	}
	data, err := json.Marshal(issues)
	if err != nil {
		return nil, fmt.Errorf("marshal issues: %w", err)
	}
	return data, nil
}

func unmarshalIssues(data []byte) ([]core.Issue, error) {
	var issues []core.Issue
	if err := json.Unmarshal(data, &issues); err != nil {
		return nil, fmt.Errorf("unmarshal issues: %w", err)
	}
	return issues, nil
}

func marshalMetrics(metrics map[string]any) ([]byte, error) {
	if metrics == nil {
		metrics = map[string]any{}
	}
	data, err := json.Marshal(metrics)
	if err != nil {
		return nil, fmt.Errorf("marshal metrics: %w", err)
	}
	return data, nil
}

func unmarshalMetrics(data []byte) (map[string]any, error) {
	var metrics map[string]any
	if err := json.Unmarshal(data, &metrics); err != nil {
		return nil, fmt.Errorf("unmarshal metrics: %w", err)
	}
	return metrics, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

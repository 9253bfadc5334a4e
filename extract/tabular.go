package extract

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Adivarma1619/insurance-rag-bot/types"
)

type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}
	return string(data), nil
}

// CSVExtractor renders each record as one " | "-joined line.
type CSVExtractor struct{}

func (CSVExtractor) Extract(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}

	lines := make([]string, 0, len(records))
	for _, row := range records {
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n"), nil
}

// JSONExtractor flattens a JSON document into lines of "key: value" pairs.
// Objects and arrays of objects flatten the same way; keys are sorted so the
// same file always produces the same text.
type JSONExtractor struct{}

func (JSONExtractor) Extract(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}

	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", types.E(types.StageExtract, types.KindInput, err)
	}

	items, ok := parsed.([]any)
	if !ok {
		items = []any{parsed}
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			lines = append(lines, fmt.Sprint(item))
			continue
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %v", k, obj[k]))
		}
		lines = append(lines, strings.Join(parts, " | "))
	}
	return strings.Join(lines, "\n"), nil
}

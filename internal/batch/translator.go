package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Translator maps human-entered enum labels to the platform's internal
// list-value ids. Unknown labels pass through unchanged: the platform's own
// list may be a superset of the snapshot, and it is the final arbiter of
// validity.
type Translator struct {
	exact  map[string]string
	folded map[string]string
}

// NewTranslator builds the label map from the named-list snapshot. An empty
// list name yields a pass-through translator for free-text and numeric
// fields.
func NewTranslator(ctx context.Context, api EmployeeAPI, listName string, logger *slog.Logger) (*Translator, error) {
	if listName == "" {
		return &Translator{}, nil
	}

	values, err := api.ListValues(ctx, listName)
	if err != nil {
		return nil, fmt.Errorf("failed to build label map: %w", err)
	}

	t := &Translator{
		exact:  make(map[string]string, len(values)),
		folded: make(map[string]string, len(values)),
	}
	for _, v := range values {
		t.exact[v.Label] = v.ID
		t.folded[strings.ToLower(v.Label)] = v.ID
	}

	logger.Debug("Enum label map built",
		slog.String("list", listName),
		slog.Int("values", len(values)),
	)

	return t, nil
}

// Translate returns the internal id for a label, trying an exact match
// before a case-folded one, and the raw value unchanged when no mapping
// exists.
func (t *Translator) Translate(rawValue string) string {
	if t.exact == nil {
		return rawValue
	}
	if id, ok := t.exact[rawValue]; ok {
		return id
	}
	if id, ok := t.folded[strings.ToLower(rawValue)]; ok {
		return id
	}
	return rawValue
}

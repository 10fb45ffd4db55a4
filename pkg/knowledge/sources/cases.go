package sources

import (
	"context"
	"fmt"
	"strings"

	"github.com/zen-systems/repairdesk/pkg/knowledge"
	"github.com/zen-systems/repairdesk/pkg/recordstore"
)

// CasesCollection is the record-store collection holding troubleshooting cases.
const CasesCollection = "cases"

// CaseLoader reads stored troubleshooting cases.
type CaseLoader struct {
	store      recordstore.Store
	collection string
	filter     recordstore.Filter
}

// NewCaseLoader creates a loader over store. An empty collection means CasesCollection.
func NewCaseLoader(store recordstore.Store, collection string, filter recordstore.Filter) *CaseLoader {
	if collection == "" {
		collection = CasesCollection
	}
	return &CaseLoader{store: store, collection: collection, filter: filter}
}

// Name returns the loader identifier.
func (c *CaseLoader) Name() string {
	return "cases:" + c.collection
}

// Load converts each case record to an entry. Records without text are dropped.
func (c *CaseLoader) Load(ctx context.Context) ([]knowledge.Entry, error) {
	records, err := c.store.QueryRecords(ctx, c.collection, c.filter)
	if err != nil {
		return nil, fmt.Errorf("querying cases: %w", err)
	}
	var out []knowledge.Entry
	for i, r := range records {
		entry := CaseEntry(r)
		if strings.TrimSpace(entry.Content) == "" {
			continue
		}
		if entry.OriginID == "" {
			entry.OriginID = fmt.Sprintf("%s-%d", c.collection, i+1)
		}
		out = append(out, entry)
	}
	return out, nil
}

// CaseEntry converts one case record. A "content" field is used verbatim;
// otherwise the structured fields are assembled into labelled lines.
func CaseEntry(r recordstore.Record) knowledge.Entry {
	title := r.First("title", "symptom")
	content := r.String("content")
	if content == "" {
		var lines []string
		if title != "" {
			lines = append(lines, "# "+title)
		}
		for _, field := range []struct{ key, label string }{
			{"symptom", "Symptom"},
			{"cause", "Cause"},
			{"solution", "Solution"},
			{"parts", "Parts"},
			{"cost", "Cost"},
			{"notes", "Notes"},
		} {
			if v := strings.TrimSpace(r.String(field.key)); v != "" {
				lines = append(lines, field.label+": "+v)
			}
		}
		if tools := r.Strings("tools"); len(tools) > 0 {
			quoted := make([]string, len(tools))
			for i, t := range tools {
				quoted[i] = "「" + t + "」"
			}
			lines = append(lines, "Tools: "+strings.Join(quoted, " "))
		}
		content = strings.Join(lines, "\n")
	}
	return knowledge.Entry{
		Category:   r.String("category"),
		SourceType: knowledge.SourceStoredCase,
		Content:    content,
		OriginID:   r.First("id", "$id", "case_id"),
		Title:      title,
	}
}

package dialogue

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

func formatDocumentsSection(docs []*schema.Document) string {
	if len(docs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("# Retrieved documents:\n")
	for i, doc := range docs {
		if doc == nil {
			continue
		}
		title := metaString(doc, "title")
		if title == "" {
			title = doc.ID
		}
		sb.WriteString(fmt.Sprintf("## [%d] %s\n%s\n", i+1, title, strings.TrimSpace(doc.Content)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func citationsFrom(docs []*schema.Document) []Citation {
	if len(docs) == 0 {
		return nil
	}
	out := make([]Citation, 0, len(docs))
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		uri := metaString(doc, "uri")
		if uri == "" {
			uri = metaString(doc, "source")
		}
		out = append(out, Citation{
			DocumentID: doc.ID,
			Title:      metaString(doc, "title"),
			URI:        uri,
			Score:      doc.Score(),
		})
	}
	return out
}

func metaString(doc *schema.Document, key string) string {
	if doc.MetaData == nil {
		return ""
	}
	if v, ok := doc.MetaData[key].(string); ok {
		return v
	}
	return ""
}

func latestUserContent(messages []*schema.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if m := messages[i]; m != nil && m.Role == schema.User {
			return strings.TrimSpace(m.Content)
		}
	}
	return ""
}

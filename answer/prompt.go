package answer

import (
	"fmt"
	"strings"

	"github.com/poiesic/worldsignal/core"
)

const promptTemplate = `You are a knowledgeable assistant specializing in financial and geopolitical news analysis. Use the following context to answer the user's question accurately and concisely.

Context:
%s

Question: %s

Answer:`

// BuildContext numbers the chunk of each hit from 1 in the given order and
// joins them with blank lines. It also returns the URLs of those hits,
// deduplicated by first appearance. Hits without a URL contribute context
// but no citation.
func BuildContext(hits []core.SearchHit) (string, []string) {
	parts := make([]string, len(hits))
	citations := make([]string, 0, len(hits))
	seen := make(map[string]bool, len(hits))

	for i, hit := range hits {
		parts[i] = fmt.Sprintf("[%d] %s", i+1, hit.Payload.Chunk)

		url := hit.Payload.URL
		if url == "" || seen[url] {
			continue
		}
		seen[url] = true
		citations = append(citations, url)
	}
	return strings.Join(parts, "\n\n"), citations
}

// BuildPrompt embeds the context block and the raw query in the instruction prompt.
func BuildPrompt(contextBlock, query string) string {
	return fmt.Sprintf(promptTemplate, contextBlock, query)
}

package classify

import (
	"encoding/json"
	"strings"

	"github.com/fwojciec/mcscrape"
)

// SystemPrompt instructs the model how to judge serialized nodes.
const SystemPrompt = `You identify the main content of a web page.

You receive the page as JSON lines, one per element, each with an "id", the element "tag", its "path" from the body and its own "text" (truncated).
Main content is the primary article, documentation, product description or post the page exists to show.
Navigation, headers, footers, sidebars, cookie banners, advertisements, related-article lists, share buttons and comment forms are not main content.

Reply with JSON only, in the form {"main_content_ids": [<id>, ...]}.
List the ids of the elements that belong to the main content. Selecting an element selects everything inside it, so prefer the outermost element that contains only main content.
If the nodes shown contain no main content, reply {"main_content_ids": []}.`

const userPromptHeader = "Page nodes:\n"

// ParseResponse extracts the kept node IDs from model output. It accepts
// {"main_content_ids": [...]}, optionally inside a Markdown code fence,
// or a bare JSON array. Anything else is EINVALIDRESPONSE.
func ParseResponse(output string) ([]mcscrape.NodeID, error) {
	body := stripCodeFence(strings.TrimSpace(output))
	if body == "" {
		return nil, mcscrape.Errorf(mcscrape.EINVALIDRESPONSE, "empty model response")
	}

	if strings.HasPrefix(body, "[") {
		var ids []mcscrape.NodeID
		if err := json.Unmarshal([]byte(body), &ids); err != nil {
			return nil, mcscrape.Errorf(mcscrape.EINVALIDRESPONSE, "malformed id array: %v", err)
		}
		return ids, nil
	}

	var resp struct {
		MainContentIDs *[]mcscrape.NodeID `json:"main_content_ids"`
	}
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, mcscrape.Errorf(mcscrape.EINVALIDRESPONSE, "malformed model response: %v", err)
	}
	if resp.MainContentIDs == nil {
		return nil, mcscrape.Errorf(mcscrape.EINVALIDRESPONSE, "model response missing main_content_ids")
	}
	return *resp.MainContentIDs, nil
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

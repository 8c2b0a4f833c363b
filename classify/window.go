package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/fwojciec/mcscrape"
)

// maxNodeTextRunes truncates each node's own text in the serialized tree.
const maxNodeTextRunes = 200

// nodeLine is one JSON line of the serialized tree.
type nodeLine struct {
	ID   mcscrape.NodeID `json:"id"`
	Tag  string          `json:"tag"`
	Path string          `json:"path"`
	Text string          `json:"text"`
}

// window is a contiguous run of serialized node lines sent in one prompt.
type window struct {
	lines []string
}

func (w window) prompt() string {
	var sb strings.Builder
	sb.WriteString(userPromptHeader)
	for _, l := range w.lines {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// SerializeTree returns one JSON line per element node that carries text or
// media, in pre-order.
func SerializeTree(tree *mcscrape.Tree) []string {
	var lines []string
	tree.Walk(func(n *mcscrape.ContentNode, _ int) bool {
		if n.IsText() {
			return true
		}
		text := tree.OwnText(n.ID)
		if text == "" && n.Kind == mcscrape.KindMedia {
			text = n.Attributes["alt"]
		}
		if text == "" && tree.TextContent(n.ID) == "" && n.Kind != mcscrape.KindMedia {
			return true
		}
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		err := enc.Encode(nodeLine{
			ID:   n.ID,
			Tag:  n.Tag,
			Path: tree.Path(n.ID),
			Text: truncateRunes(text, maxNodeTextRunes),
		})
		if err != nil {
			return true
		}
		lines = append(lines, strings.TrimSuffix(buf.String(), "\n"))
		return true
	})
	return lines
}

// windows splits the serialized tree so that every prompt stays within the
// token budget. A single line larger than the budget gets a window of its own.
func (c *Classifier) windows(ctx context.Context, tree *mcscrape.Tree) ([]window, error) {
	lines := SerializeTree(tree)
	if len(lines) == 0 {
		return nil, nil
	}

	overhead, err := c.counter.CountTokens(ctx, SystemPrompt+userPromptHeader)
	if err != nil {
		return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "failed to count prompt tokens: %v", err)
	}
	budget := c.maxTokens - overhead

	var (
		windows []window
		current window
		used    int
	)
	for _, l := range lines {
		n, err := c.counter.CountTokens(ctx, l+"\n")
		if err != nil {
			return nil, mcscrape.WrapError(mcscrape.EINTERNAL, err, "failed to count prompt tokens: %v", err)
		}
		if len(current.lines) > 0 && used+n > budget {
			windows = append(windows, current)
			current, used = window{}, 0
		}
		current.lines = append(current.lines, l)
		used += n
	}
	if len(current.lines) > 0 {
		windows = append(windows, current)
	}
	return windows, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// ApproxCounter estimates tokens as one per four bytes of text.
type ApproxCounter struct{}

// Ensure ApproxCounter implements mcscrape.TokenCounter.
var _ mcscrape.TokenCounter = ApproxCounter{}

// CountTokens implements mcscrape.TokenCounter.
func (ApproxCounter) CountTokens(_ context.Context, text string) (int, error) {
	return (len(text) + 3) / 4, nil
}

package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem is a single row of a tree display.
type TreeItem struct {
	Title  string
	Seq    int // project-scoped sequential ID; 0 hides it
	Level  int
	IsLast bool
	Status string
	Detail string
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
	treeBlank  = "   "
)

// TreeNode is the input to FlattenTree: anything with an id and an optional
// parent id.
type TreeNode struct {
	ID       string
	ParentID string
	Item     TreeItem
}

// FlattenTree orders nodes depth-first, keeping the input order among
// siblings, and fills in Level and IsLast. Nodes whose parent is missing are
// shown as roots.
func FlattenTree(nodes []TreeNode) []TreeItem {
	known := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
	}
	children := make(map[string][]TreeNode)
	var roots []TreeNode
	for _, n := range nodes {
		if n.ParentID == "" || !known[n.ParentID] {
			roots = append(roots, n)
			continue
		}
		children[n.ParentID] = append(children[n.ParentID], n)
	}

	out := make([]TreeItem, 0, len(nodes))
	var walk func(list []TreeNode, level int)
	walk = func(list []TreeNode, level int) {
		for i, n := range list {
			item := n.Item
			item.Level = level
			item.IsLast = i == len(list)-1
			out = append(out, item)
			walk(children[n.ID], level+1)
		}
	}
	walk(roots, 0)
	return out
}

// RenderTree renders TreeItems as an indented tree using box-drawing
// connectors. Completed items get a green ✔ prefix, in-progress items an
// amber ▶, and detail badges are right-aligned.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}
	lines := make([]lineInfo, len(items))
	maxContentWidth := 0

	// open[l] reports whether the ancestor at level l still has siblings
	// below, which decides between a pipe and a blank.
	open := map[int]bool{}
	for idx, item := range items {
		var prefix string
		if item.Level > 0 {
			for l := 1; l < item.Level; l++ {
				if open[l] {
					prefix += treePipe
				} else {
					prefix += treeBlank
				}
			}
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}
		open[item.Level] = !item.IsLast

		title := item.Title
		if item.Seq > 0 {
			title = StyleDim.Render(fmt.Sprintf("#%d ", item.Seq)) + title
		}
		statusPrefix := ""
		switch strings.ToLower(item.Status) {
		case "completed", "done":
			statusPrefix = StyleGreen.Render("✔ ")
			title = Dim(title)
		case "in_progress":
			statusPrefix = StyleYellowBold.Render("▶ ")
			title = StyleYellowBold.Render(title)
		}

		content := prefix + statusPrefix + title
		lines[idx].content = content
		if item.Detail != "" {
			lines[idx].badge = StyleBlue.Render(fmt.Sprintf("[ %s ]", item.Detail))
		}
		if w := lipgloss.Width(content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	var b strings.Builder
	for _, li := range lines {
		if li.badge == "" {
			b.WriteString(li.content + "\n")
			continue
		}
		pad := maxContentWidth - lipgloss.Width(li.content)
		if pad < 0 {
			pad = 0
		}
		b.WriteString(li.content + strings.Repeat(" ", pad) + "  " + li.badge + "\n")
	}
	return b.String()
}

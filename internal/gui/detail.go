package gui

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	. "modernc.org/tk9.0"

	"github.com/thiagokokada/gitlanes/internal/debounce"
	"github.com/thiagokokada/gitlanes/internal/highlight"
	"github.com/thiagokokada/gitlanes/internal/lanegraph"
)

const detailDebounceDelay = 120 * time.Millisecond

type detailState struct {
	syntaxTags map[string]string

	mu        sync.Mutex
	debouncer *debounce.Debouncer
	pending   string
	// shown is the SHA (or worktree key) whose detail is wanted on screen.
	shown string
}

func (a *Controller) selectRow(row int) {
	if row < 0 || row >= len(a.graph.Commits) || row == a.selected {
		return
	}
	a.selected = row
	a.drawGraph()
	commit := a.graph.Commits[row]
	if a.local == nil {
		a.setShown(commit.SHA)
		a.writeDetailText(remoteDetail(commit), false)
		return
	}
	a.writeDetailText(remoteDetail(commit)+"\nLoading diff...", false)
	a.scheduleDetailLoad(commit)
}

func (a *Controller) setShown(key string) {
	a.detail.mu.Lock()
	a.detail.shown = key
	a.detail.mu.Unlock()
}

func (a *Controller) isShown(key string) bool {
	a.detail.mu.Lock()
	defer a.detail.mu.Unlock()
	return a.detail.shown == key
}

// scheduleDetailLoad debounces diff loading so fast clicking only computes
// the last selected commit.
func (a *Controller) scheduleDetailLoad(commit lanegraph.Commit) {
	deb := func() *debounce.Debouncer {
		a.detail.mu.Lock()
		defer a.detail.mu.Unlock()
		a.detail.pending = commit.SHA
		a.detail.shown = commit.SHA
		return debounce.Ensure(&a.detail.debouncer, detailDebounceDelay, a.flushDetailLoad)
	}()
	deb.Trigger()
}

func (a *Controller) flushDetailLoad() {
	a.detail.mu.Lock()
	sha := a.detail.pending
	a.detail.pending = ""
	a.detail.mu.Unlock()
	if sha == "" {
		return
	}
	go func() {
		d, err := a.local.CommitDetail(sha)
		text := d.String()
		if err != nil {
			text = fmt.Sprintf("Unable to compute diff: %v", err)
		}
		PostEvent(func() {
			if !a.isShown(sha) {
				return
			}
			a.writeDetailText(text, d.HasChanges())
		}, false)
	}()
}

func (a *Controller) showWorktree(staged bool) {
	if a.local == nil {
		return
	}
	key := "worktree"
	if staged {
		key = "index"
	}
	a.cancelDetailLoad()
	a.setShown(key)
	a.writeDetailText("Loading local changes...", false)
	go func() {
		d, err := a.local.WorktreeDiff(staged)
		text := d.String()
		switch {
		case err != nil:
			text = fmt.Sprintf("Unable to compute diff: %v", err)
		case !d.HasChanges():
			text = "No changes."
		}
		PostEvent(func() {
			if !a.isShown(key) {
				return
			}
			a.writeDetailText(text, d.HasChanges())
		}, false)
	}()
}

func (a *Controller) cancelDetailLoad() {
	a.detail.mu.Lock()
	defer a.detail.mu.Unlock()
	if a.detail.debouncer != nil {
		a.detail.debouncer.Stop()
	}
	a.detail.pending = ""
}

func (a *Controller) writeDetailText(content string, highlightDiff bool) {
	d := a.ui.detail
	d.Configure(State(NORMAL))
	d.Delete("1.0", END)
	d.Insert("1.0", content)
	for _, tag := range []string{"diffAdd", "diffDel", "diffHeader"} {
		d.TagRemove(tag, "1.0", END)
	}
	a.clearSyntaxHighlight()
	if highlightDiff {
		a.highlightDiffLines(content)
		if a.cfg.SyntaxHighlight {
			a.applySyntaxHighlight(content)
		}
	}
	d.Configure(State("disabled"))
}

func (a *Controller) highlightDiffLines(content string) {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		tag := diffLineTag(line)
		if tag == "" {
			continue
		}
		lineNo := i + 1
		end := fmt.Sprintf("%d.0", lineNo+1)
		if lineNo == len(lines) {
			end = fmt.Sprintf("%d.end", lineNo)
		}
		a.ui.detail.TagAdd(tag, fmt.Sprintf("%d.0", lineNo), end)
	}
}

func (a *Controller) applySyntaxHighlight(content string) {
	spans := highlight.DiffSpans(content, highlight.Style(a.pal))
	slog.Debug("syntax highlight", slog.Int("lines", len(spans)))
	for lineNo, line := range spans {
		for _, s := range line {
			tag := a.syntaxTagForColor(s.Color)
			a.ui.detail.TagAdd(tag, fmt.Sprintf("%d.%d", lineNo, s.Start), fmt.Sprintf("%d.%d", lineNo, s.End))
		}
	}
}

func (a *Controller) clearSyntaxHighlight() {
	for _, tag := range a.detail.syntaxTags {
		a.ui.detail.TagRemove(tag, "1.0", END)
	}
}

func (a *Controller) syntaxTagForColor(color string) string {
	if a.detail.syntaxTags == nil {
		a.detail.syntaxTags = make(map[string]string)
	}
	if tag, ok := a.detail.syntaxTags[color]; ok {
		return tag
	}
	tag := fmt.Sprintf("syntax_%d", len(a.detail.syntaxTags))
	a.ui.detail.TagConfigure(tag, Foreground(color))
	a.detail.syntaxTags[color] = tag
	return tag
}

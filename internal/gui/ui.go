package gui

import (
	"fmt"
	"log/slog"
	"strings"

	. "modernc.org/tk9.0"

	"github.com/thiagokokada/gitlanes/internal/gui/tkutil"
)

type appWidgets struct {
	status       *TLabelWidget
	branchEntry  *TEntryWidget
	prevButton   *TButtonWidget
	nextButton   *TButtonWidget
	reloadButton *TButtonWidget
	unstagedBtn  *TButtonWidget
	stagedBtn    *TButtonWidget
	canvas       *CanvasWidget
	detail       *TextWidget
}

func (a *Controller) buildUI() {
	GridColumnConfigure(App, 0, Weight(1))
	GridRowConfigure(App, 1, Weight(1))

	controls := App.TFrame(Padding("8p"))
	Grid(controls, Row(0), Column(0), Sticky(WE))
	GridColumnConfigure(controls.Window, 1, Weight(1))

	Grid(controls.TLabel(Txt(fmt.Sprintf("Source: %s", a.src.String())), Anchor(W)), Row(0), Column(0), Columnspan(7), Sticky(W))

	Grid(controls.TLabel(Txt("Branch:"), Anchor(E)), Row(1), Column(0), Sticky(E))
	a.ui.branchEntry = controls.TEntry(Width(30), Textvariable(a.branch))
	Grid(a.ui.branchEntry, Row(1), Column(1), Sticky(WE), Padx("4p"))
	Bind(a.ui.branchEntry, "<Return>", Command(func() {
		a.switchBranch(strings.TrimSpace(a.ui.branchEntry.Textvariable()))
	}))

	a.ui.prevButton = controls.TButton(Txt("Newer"), Command(func() { a.movePage(-1) }))
	Grid(a.ui.prevButton, Row(1), Column(2), Padx("2p"))
	a.ui.nextButton = controls.TButton(Txt("Older"), Command(func() { a.movePage(1) }))
	Grid(a.ui.nextButton, Row(1), Column(3), Padx("2p"))
	a.ui.unstagedBtn = controls.TButton(Txt("Unstaged"), Command(func() { a.showWorktree(false) }))
	Grid(a.ui.unstagedBtn, Row(1), Column(4), Padx("2p"))
	a.ui.stagedBtn = controls.TButton(Txt("Staged"), Command(func() { a.showWorktree(true) }))
	Grid(a.ui.stagedBtn, Row(1), Column(5), Padx("2p"))
	a.ui.reloadButton = controls.TButton(Txt("Reload"), Command(a.onReloadButton))
	a.watch.button = a.ui.reloadButton
	Grid(a.ui.reloadButton, Row(1), Column(6), Sticky(E))

	pane := App.TPanedwindow(Orient(VERTICAL))
	Grid(pane, Row(1), Column(0), Sticky(NEWS), Padx("4p"), Pady("4p"))
	graphArea := pane.TFrame()
	detailArea := pane.TFrame()
	pane.Add(graphArea.Window)
	pane.Add(detailArea.Window)

	GridRowConfigure(graphArea.Window, 0, Weight(1))
	GridColumnConfigure(graphArea.Window, 0, Weight(1))
	graphScroll := graphArea.TScrollbar(Command(func(e *Event) { e.Yview(a.ui.canvas) }))
	a.ui.canvas = graphArea.Canvas(Background(a.pal.Background), Height(420), Width(900))
	a.ui.canvas.Configure(Yscrollcommand(func(e *Event) { e.ScrollSet(graphScroll) }))
	Grid(a.ui.canvas, Row(0), Column(0), Sticky(NEWS))
	Grid(graphScroll, Row(0), Column(1), Sticky(NS))
	Bind(a.ui.canvas, "<Button-1>", Command(func(e *Event) {
		y := tkutil.Atoi(tkutil.EvalOrEmpty("%s canvasy %v", a.ui.canvas, e.Y))
		a.selectRow(rowAtY(y, a.geom, len(a.graph.Commits)))
	}))
	for _, script := range []string{
		"bind %[1]s <Button-4> {%[1]s yview scroll -3 units}",
		"bind %[1]s <Button-5> {%[1]s yview scroll 3 units}",
		"bind %[1]s <MouseWheel> {%[1]s yview scroll [expr {-%%D/120}] units}",
	} {
		if _, err := tkutil.Eval(script, a.ui.canvas); err != nil {
			slog.Debug("canvas scroll binding", slog.Any("error", err))
		}
	}

	GridRowConfigure(detailArea.Window, 0, Weight(1))
	GridColumnConfigure(detailArea.Window, 0, Weight(1))
	detailYScroll := detailArea.TScrollbar(Command(func(e *Event) { e.Yview(a.ui.detail) }))
	detailXScroll := detailArea.TScrollbar(Orient(HORIZONTAL), Command(func(e *Event) { e.Xview(a.ui.detail) }))
	a.ui.detail = detailArea.Text(Wrap(NONE), Font(CourierFont(), 11), Exportselection(false), Tabs("1c"), Height(16))
	a.ui.detail.Configure(Yscrollcommand(func(e *Event) { e.ScrollSet(detailYScroll) }))
	a.ui.detail.Configure(Xscrollcommand(func(e *Event) { e.ScrollSet(detailXScroll) }))
	a.ui.detail.TagConfigure("diffAdd", Background(a.diffColor("add")))
	a.ui.detail.TagConfigure("diffDel", Background(a.diffColor("del")))
	a.ui.detail.TagConfigure("diffHeader", Background(a.diffColor("header")))
	Grid(a.ui.detail, Row(0), Column(0), Sticky(NEWS))
	Grid(detailYScroll, Row(0), Column(1), Sticky(NS))
	Grid(detailXScroll, Row(1), Column(0), Sticky(WE))

	a.ui.status = App.TLabel(Anchor(W), Relief(SUNKEN), Padding("4p"))
	Grid(a.ui.status, Row(2), Column(0), Sticky(WE))

	a.writeDetailText("Select a commit to view its details.", false)
	a.updateLocalButtons()
	a.updatePageButtons()
}

func (a *Controller) diffColor(kind string) string {
	dark := a.pal.IsDark()
	switch kind {
	case "add":
		if dark {
			return "#1f3d2b"
		}
		return "#dff5de"
	case "del":
		if dark {
			return "#3d1f29"
		}
		return "#f9d6d5"
	default:
		if dark {
			return "#2f2f2f"
		}
		return "#e4e4e4"
	}
}

func setEnabled(b *TButtonWidget, enabled bool) {
	if b == nil {
		return
	}
	if enabled {
		b.Configure(State(NORMAL))
		return
	}
	b.Configure(State("disabled"))
}

func (a *Controller) updateLocalButtons() {
	setEnabled(a.ui.unstagedBtn, a.local != nil && a.changes.HasWorktree)
	setEnabled(a.ui.stagedBtn, a.local != nil && a.changes.HasStaged)
}

func (a *Controller) updatePageButtons() {
	setEnabled(a.ui.prevButton, a.page > 1)
	setEnabled(a.ui.nextButton, pageAfter(a.page, 1, len(a.graph.Commits), a.cfg.Limit) != a.page)
}

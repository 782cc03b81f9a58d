package main

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"gioui.org/app"
	"gioui.org/font"
	"gioui.org/font/gofont"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"

	"tasklist/internal/client"
	"tasklist/internal/config"
	"tasklist/internal/confirm"
	"tasklist/pkg/task"
)

var theme *material.Theme

var (
	grey   = color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	red    = color.NRGBA{R: 0xFF, G: 0x40, B: 0x40, A: 0xFF}
	orange = color.NRGBA{R: 0xFF, G: 0xA0, B: 0x00, A: 0xFF}
	blue   = color.NRGBA{R: 0x00, G: 0xA0, B: 0xFF, A: 0xFF}
	green  = color.NRGBA{R: 0x00, G: 0xC0, B: 0x00, A: 0xFF}
)

// row holds the per-task widgets, keyed by task id so state survives
// reordering between polls.
type row struct {
	toggle widget.Clickable
	remove widget.Clickable
}

type UI struct {
	api    *client.Client
	window *app.Window

	mu      sync.Mutex
	list    client.List
	filter  task.Filter
	errs    task.ValidationErrors
	lastErr string

	// Filters
	filterAll       widget.Clickable
	filterPending   widget.Clickable
	filterCompleted widget.Clickable

	// New task form
	textEditor widget.Editor
	descEditor widget.Editor
	dueEditor  widget.Editor
	priority   widget.Enum
	addBtn     widget.Clickable
	clearBtn   widget.Clickable
	taskList   widget.List
	rows       map[string]*row

	// Delete and clear-completed need a second press.
	confirm confirm.Gate
}

const clearKey = "clear"

func deleteKey(id string) string { return "delete:" + id }

func main() {
	base := "/"
	if cfg, err := config.Load("config.yaml"); err != nil {
		log.Printf("load config: %v", err)
	} else if cfg.APIBase != "" {
		base = cfg.APIBase
	}

	theme = material.NewTheme()
	theme.Shaper = text.NewShaper(text.WithCollection(gofont.Collection()))
	theme.Palette.Bg = color.NRGBA{R: 0x12, G: 0x12, B: 0x12, A: 0xFF}
	theme.Palette.Fg = color.NRGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	theme.Palette.ContrastBg = color.NRGBA{R: 0x30, G: 0x60, B: 0xA0, A: 0xFF}
	theme.Palette.ContrastFg = color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}

	ui := &UI{
		api:    client.New(base, nil),
		window: new(app.Window),
		filter: task.FilterAll,
		rows:   make(map[string]*row),
	}
	ui.taskList.Axis = layout.Vertical
	ui.textEditor.SingleLine = true
	ui.textEditor.Submit = true
	ui.descEditor.SingleLine = true
	ui.dueEditor.SingleLine = true
	ui.priority.Value = string(task.PriorityMedium)

	go ui.pollData()

	go func() {
		ui.window.Option(app.Title("Tasks"))
		ui.window.Option(app.Size(unit.Dp(720), unit.Dp(800)))
		if err := ui.run(ui.window); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
}

func (ui *UI) run(w *app.Window) error {
	var ops op.Ops
	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			ui.handleClicks(gtx)
			ui.layout(gtx)
			e.Frame(gtx.Ops)
		}
	}
}

func (ui *UI) handleClicks(gtx layout.Context) {
	if ui.filterAll.Clicked(gtx) {
		ui.setFilter(task.FilterAll)
	}
	if ui.filterPending.Clicked(gtx) {
		ui.setFilter(task.FilterPending)
	}
	if ui.filterCompleted.Clicked(gtx) {
		ui.setFilter(task.FilterCompleted)
	}
	ui.priority.Update(gtx)

	submitted := false
	for {
		ev, ok := ui.textEditor.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.SubmitEvent); ok {
			submitted = true
		}
	}
	if ui.addBtn.Clicked(gtx) || submitted {
		ui.submitDraft()
	}
	if ui.clearBtn.Clicked(gtx) && ui.confirm.Press(clearKey, gtx.Now) {
		go ui.mutate(func(ctx context.Context) error {
			_, err := ui.api.ClearCompleted(ctx)
			return err
		})
	}

	ui.mu.Lock()
	items := ui.list.Tasks
	ui.mu.Unlock()
	ui.pruneRows(items)
	for _, it := range items {
		r := ui.row(it.ID)
		id := it.ID
		if r.toggle.Clicked(gtx) {
			go ui.mutate(func(ctx context.Context) error {
				_, err := ui.api.Toggle(ctx, id)
				return err
			})
		}
		if r.remove.Clicked(gtx) && ui.confirm.Press(deleteKey(id), gtx.Now) {
			go ui.mutate(func(ctx context.Context) error {
				return ui.api.Delete(ctx, id)
			})
		}
	}
}

// submitDraft validates the form locally and only sends drafts that pass.
func (ui *UI) submitDraft() {
	d := task.Draft{
		Text:        ui.textEditor.Text(),
		Description: ui.descEditor.Text(),
		Priority:    task.ParsePriority(ui.priority.Value),
	}
	errs := task.ValidationErrors{}
	if s := strings.TrimSpace(ui.dueEditor.Text()); s != "" {
		due, err := task.ParseDate(s)
		if err != nil {
			errs["dueDate"] = "use YYYY-MM-DD"
		} else {
			d.DueDate = &due
		}
	}
	for field, msg := range task.ValidateDraft(d, time.Now()) {
		errs[field] = msg
	}

	ui.mu.Lock()
	ui.errs = errs
	ui.mu.Unlock()
	if len(errs) > 0 {
		return
	}

	ui.textEditor.SetText("")
	ui.descEditor.SetText("")
	ui.dueEditor.SetText("")
	ui.priority.Value = string(task.PriorityMedium)
	go ui.mutate(func(ctx context.Context) error {
		_, err := ui.api.Create(ctx, d)
		var verr task.ValidationErrors
		if errors.As(err, &verr) {
			ui.mu.Lock()
			ui.errs = verr
			ui.mu.Unlock()
			return nil
		}
		return err
	})
}

func (ui *UI) setFilter(f task.Filter) {
	ui.mu.Lock()
	ui.filter = f
	ui.mu.Unlock()
	go ui.fetchTasks()
}

func (ui *UI) row(id string) *row {
	r, ok := ui.rows[id]
	if !ok {
		r = new(row)
		ui.rows[id] = r
	}
	return r
}

// pruneRows drops widget state for tasks no longer in the list.
func (ui *UI) pruneRows(items []client.Item) {
	live := make(map[string]bool, len(items))
	for _, it := range items {
		live[it.ID] = true
	}
	for id := range ui.rows {
		if !live[id] {
			delete(ui.rows, id)
		}
	}
}

func (ui *UI) layout(gtx layout.Context) layout.Dimensions {
	if exp := ui.confirm.Expiry(); exp.After(gtx.Now) {
		gtx.Execute(op.InvalidateCmd{At: exp})
	}
	ui.mu.Lock()
	list, filter, errs, lastErr := ui.list, ui.filter, ui.errs, ui.lastErr
	ui.mu.Unlock()

	return layout.UniformInset(unit.Dp(16)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return material.H5(theme, "Tasks").Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				s := list.Stats
				label := material.Caption(theme, fmt.Sprintf("%d total, %d completed, %d pending", s.Total, s.Completed, s.Pending))
				label.Color = grey
				return label.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return ui.layoutForm(gtx, errs)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(12)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return ui.layoutFilters(gtx, filter, list.Stats)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if lastErr == "" {
					return layout.Dimensions{}
				}
				label := material.Caption(theme, lastErr)
				label.Color = red
				return label.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return ui.layoutTasks(gtx, list.Tasks)
			}),
		)
	})
}

func (ui *UI) layoutForm(gtx layout.Context, errs task.ValidationErrors) layout.Dimensions {
	field := func(ed *widget.Editor, hint, key string) layout.FlexChild {
		return layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
				layout.Rigid(material.Editor(theme, ed, hint).Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					msg, ok := errs[key]
					if !ok {
						return layout.Dimensions{}
					}
					label := material.Caption(theme, msg)
					label.Color = red
					return label.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Height: unit.Dp(6)}.Layout),
			)
		})
	}

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		field(&ui.textEditor, "What needs doing?", "text"),
		field(&ui.descEditor, "Description (optional)", "description"),
		field(&ui.dueEditor, "Due date, YYYY-MM-DD (optional)", "dueDate"),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(material.RadioButton(theme, &ui.priority, string(task.PriorityLow), "Low").Layout),
				layout.Rigid(material.RadioButton(theme, &ui.priority, string(task.PriorityMedium), "Medium").Layout),
				layout.Rigid(material.RadioButton(theme, &ui.priority, string(task.PriorityHigh), "High").Layout),
				layout.Flexed(1, layout.Spacer{}.Layout),
				layout.Rigid(material.Button(theme, &ui.addBtn, "Add").Layout),
			)
		}),
	)
}

func (ui *UI) layoutFilters(gtx layout.Context, current task.Filter, stats task.Stats) layout.Dimensions {
	return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
		layout.Rigid(filterBtn(&ui.filterAll, "All", current == task.FilterAll)),
		layout.Rigid(filterBtn(&ui.filterPending, "Pending", current == task.FilterPending)),
		layout.Rigid(filterBtn(&ui.filterCompleted, "Completed", current == task.FilterCompleted)),
		layout.Flexed(1, layout.Spacer{}.Layout),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			if stats.Completed == 0 {
				return layout.Dimensions{}
			}
			label := fmt.Sprintf("Clear completed (%d)", stats.Completed)
			if ui.confirm.Armed(clearKey, gtx.Now) {
				label = fmt.Sprintf("Confirm? Remove %d", stats.Completed)
			}
			btn := material.Button(theme, &ui.clearBtn, label)
			btn.Background = color.NRGBA{R: 0xC0, G: 0x30, B: 0x30, A: 0xFF}
			return btn.Layout(gtx)
		}),
	)
}

func filterBtn(btn *widget.Clickable, label string, active bool) layout.Widget {
	return func(gtx layout.Context) layout.Dimensions {
		return layout.Inset{Right: unit.Dp(8)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			b := material.Button(theme, btn, label)
			if active {
				b.Background = theme.Palette.ContrastBg
			} else {
				b.Background = color.NRGBA{A: 0}
			}
			b.Color = theme.Palette.Fg
			return b.Layout(gtx)
		})
	}
}

func (ui *UI) layoutTasks(gtx layout.Context, items []client.Item) layout.Dimensions {
	if len(items) == 0 {
		label := material.Body2(theme, "Nothing here.")
		label.Color = grey
		return label.Layout(gtx)
	}
	return material.List(theme, &ui.taskList).Layout(gtx, len(items), func(gtx layout.Context, i int) layout.Dimensions {
		it := items[i]
		r := ui.row(it.ID)
		return layout.Inset{Bottom: unit.Dp(6)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Alignment: layout.Middle}.Layout(gtx,
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					mark := "○"
					if it.Completed {
						mark = "✓"
					}
					b := material.Button(theme, &r.toggle, mark)
					b.Background = color.NRGBA{A: 0}
					b.Color = theme.Palette.Fg
					return b.Layout(gtx)
				}),
				layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
				layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
					return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Body1(theme, it.Text)
							label.Font.Weight = font.Bold
							if it.Completed {
								label.Color = grey
							}
							return label.Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							if it.Description == "" {
								return layout.Dimensions{}
							}
							return material.Caption(theme, it.Description).Layout(gtx)
						}),
						layout.Rigid(func(gtx layout.Context) layout.Dimensions {
							label := material.Caption(theme, detail(it))
							label.Color = dueColor(it)
							return label.Layout(gtx)
						}),
					)
				}),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					label := "Delete"
					if ui.confirm.Armed(deleteKey(it.ID), gtx.Now) {
						label = "Confirm?"
					}
					b := material.Button(theme, &r.remove, label)
					b.Background = color.NRGBA{R: 0x50, G: 0x20, B: 0x20, A: 0xFF}
					return b.Layout(gtx)
				}),
			)
		})
	})
}

func detail(it client.Item) string {
	s := string(it.Priority) + " priority"
	if it.Due != nil && !it.Completed {
		s += ", " + it.Due.Label
	}
	return s
}

func dueColor(it client.Item) color.NRGBA {
	if it.Due == nil || it.Completed {
		return grey
	}
	switch it.Due.Kind {
	case task.DueOverdue:
		return red
	case task.DueToday:
		return orange
	case task.DueSoon:
		return blue
	default:
		return green
	}
}

// Data fetching

func (ui *UI) pollData() {
	ui.fetchTasks()
	ticker := time.NewTicker(5 * time.Second)
	for range ticker.C {
		ui.fetchTasks()
	}
}

func (ui *UI) fetchTasks() {
	ui.mu.Lock()
	f := ui.filter
	ui.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	l, err := ui.api.List(ctx, f)

	ui.mu.Lock()
	if err != nil {
		log.Printf("fetch tasks: %v", err)
		ui.lastErr = "Could not reach the server."
	} else if ui.filter == f {
		ui.list = l
		ui.lastErr = ""
	}
	ui.mu.Unlock()
	ui.window.Invalidate()
}

// mutate runs op against the API and refreshes the list afterwards.
func (ui *UI) mutate(op func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := op(ctx); err != nil && !errors.Is(err, client.ErrNotFound) {
		log.Printf("update tasks: %v", err)
		ui.mu.Lock()
		ui.lastErr = err.Error()
		ui.mu.Unlock()
	}
	ui.fetchTasks()
}

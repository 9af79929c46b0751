package main

import (
	"fmt"
	"strings"

	"github.com/sakif/wellwishers/internal/gate"
	"github.com/sakif/wellwishers/internal/treeview"
)

func (a *app) renderPage(p *treeview.Page) {
	a.printf("%s (%s)\n", p.TreeName, p.TreeID)
	a.printf("Owner: %s\n", p.Owner.Name)
	a.printf("Mode: %s\n", p.Mode)

	if len(p.Decorators) == 0 {
		a.printf("Decorated by: nobody yet\n")
	} else {
		names := make([]string, len(p.Decorators))
		for i, d := range p.Decorators {
			names[i] = d.Name
		}
		a.printf("Decorated by: %s\n", strings.Join(names, ", "))
	}

	if p.Mode.ShowPicker() {
		switch p.Submission.State {
		case gate.SubmissionDone:
			a.printf("You have decorated this tree. Thank you!\n")
		case gate.SubmissionUnknown:
			a.printf("Placement: unknown (%v); you may still try `wishctl decorate`\n", p.Submission.Err)
		default:
			a.printf("Placement: not yet. Pick an icon with `wishctl decorate --icon ...`\n")
		}
	}
	if p.Mode.ShowWishForm() {
		a.printf("Leave a wish with `wishctl wish \"...\" %s`\n", p.TreeID)
	}
	if p.Mode.ConsultsGate() {
		a.printf("%s\n", revealLine(p.Reveal))
	}
}

func (a *app) renderWishes(v treeview.WishesView) {
	if v.Err != nil {
		a.printf("Could not load wishes (%v).\n", v.Err)
	}
	a.printf("%s\n", revealLine(v.Reveal))
	if !v.Reveal.Revealed {
		return
	}
	if len(v.Wishes) == 0 {
		a.printf("No wishes yet.\n")
		return
	}
	for _, w := range v.Wishes {
		a.printf("- %s: %s\n", w.Name, w.Text)
	}
}

// revealLine is the one-line state of the reveal gate for an owner.
func revealLine(r gate.Reveal) string {
	switch {
	case r.Revealed:
		return fmt.Sprintf("Wishes are open until %s.", r.Window.End.Format("Jan 2 15:04"))
	case r.Phase == gate.PhasePassed:
		return "The reveal window has passed; wishes are locked again."
	default:
		return fmt.Sprintf("Wishes unlock in %s.", r.Remaining)
	}
}

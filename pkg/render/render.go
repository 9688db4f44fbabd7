// Package render prints filter views for the terminal.
package render

import (
	"encoding/json"
	"io"
	"text/tabwriter"

	"github.com/harrisonrobin/engagements/pkg/filter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "2006-01-02"

// Renderer writes views to one output.
type Renderer struct {
	w io.Writer
	p *message.Printer
}

func New(w io.Writer) *Renderer {
	return &Renderer{w: w, p: message.NewPrinter(language.English)}
}

// Writer returns the underlying output.
func (r *Renderer) Writer() io.Writer {
	return r.w
}

// View prints either the project list or, when a role is selected, the role
// overview, followed by the count line.
func (r *Renderer) View(v filter.View) {
	if v.Overview != nil {
		r.RoleOverview(*v.Overview)
	} else {
		r.Projects(v)
	}
	r.Count(v.FilteredCount, v.Total)
}

// Projects prints one row per project in view order.
func (r *Renderer) Projects(v filter.View) {
	if len(v.Projects) == 0 {
		r.p.Fprintln(r.w, "No projects match the current filters")
		return
	}
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	r.p.Fprintln(tw, "EXPIRES\tNAME\tPROGRAM\tSCOPED\tLOGGED")
	for _, p := range v.Projects {
		program := p.Program
		if program == "" {
			program = "-"
		}
		r.p.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.1f\n",
			p.ExpireDate.Format(dateLayout), p.Name, program, p.HoursScoped(), p.HoursLogged())
	}
	tw.Flush()
}

// RoleOverview prints the selected role's hours per project and in total.
func (r *Renderer) RoleOverview(o filter.RoleOverview) {
	r.p.Fprintf(r.w, "Role: %s\n", o.Role)
	if len(o.Projects) == 0 {
		r.p.Fprintln(r.w, "No projects are scoped for this role")
		return
	}
	tw := tabwriter.NewWriter(r.w, 0, 0, 2, ' ', 0)
	r.p.Fprintln(tw, "EXPIRES\tNAME\tSCOPED\tLOGGED\tREMAINING")
	for _, p := range o.Projects {
		r.p.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%.1f\n",
			p.ExpireDate.Format(dateLayout), p.Name, p.HoursScoped, p.HoursLogged, p.HoursScoped-p.HoursLogged)
	}
	r.p.Fprintf(tw, "\tTOTAL\t%.1f\t%.1f\t%.1f\n", o.HoursScoped, o.HoursLogged, o.HoursScoped-o.HoursLogged)
	tw.Flush()
}

// Count prints the "N of M" line.
func (r *Renderer) Count(filtered, total int) {
	r.p.Fprintf(r.w, "%d of %d projects showing\n", filtered, total)
}

// Options prints a selectable option list, marking the active one.
func (r *Renderer) Options(title string, options []string, active string) {
	if len(options) == 0 {
		r.p.Fprintf(r.w, "No %s found\n", title)
		return
	}
	r.p.Fprintf(r.w, "%s:\n", title)
	for _, o := range options {
		mark := " "
		if o == active {
			mark = "*"
		}
		r.p.Fprintf(r.w, " %s %s\n", mark, o)
	}
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

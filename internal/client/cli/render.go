package cli

import (
	"fmt"
	"html"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/contentdesk/internal/client/access"
	"github.com/dmitrijs2005/contentdesk/internal/client/models"
	"github.com/dmitrijs2005/contentdesk/internal/client/services"
	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
)

// Renderer turns content into terminal text. Item fields come from the
// server and may contain markup, which is stripped before printing.
type Renderer struct {
	policy *bluemonday.Policy
	now    func() time.Time
}

func NewRenderer() *Renderer {
	return &Renderer{policy: bluemonday.StrictPolicy(), now: time.Now}
}

// Text strips markup and collapses whitespace.
func (r *Renderer) Text(s string) string {
	clean := html.UnescapeString(r.policy.Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

// When formats t relative to now, e.g. "3 days ago".
func (r *Renderer) When(t models.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.RelTime(t.Time, r.now(), "ago", "from now")
}

func actionNames(a access.Actions) string {
	names := make([]string, 0, 3)
	if a.View {
		names = append(names, "view")
	}
	if a.Edit {
		names = append(names, "edit")
	}
	if a.Delete {
		names = append(names, "delete")
	}
	return strings.Join(names, ",")
}

const maxTitleWidth = 40

func truncate(s string, n int) string {
	rs := []rune(s)
	if len(rs) <= n {
		return s
	}
	return string(rs[:n-3]) + "..."
}

// List prints items as a table in the order given.
func (r *Renderer) List(w io.Writer, heading string, items []services.Item) {
	fmt.Fprintf(w, "== %s (%d) ==\n", heading, len(items))
	if len(items) == 0 {
		fmt.Fprintln(w, "No content yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tAUTHOR\tCREATED\tACTIONS")
	for _, it := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			it.ID,
			truncate(r.Text(it.Title), maxTitleWidth),
			it.Status,
			r.Text(it.Author),
			r.When(it.DateCreated),
			actionNames(it.Actions),
		)
	}
	_ = tw.Flush()
}

// Item prints the detail view of one item.
func (r *Renderer) Item(w io.Writer, c models.Content) {
	fmt.Fprintf(w, "#%d %s\n", c.ID, r.Text(c.Title))
	fmt.Fprintf(w, "By %s | %s | created %s", r.Text(c.Author), c.Status, r.When(c.DateCreated))
	if c.DateUpdated != nil && !c.DateUpdated.IsZero() {
		fmt.Fprintf(w, " | updated %s", r.When(*c.DateUpdated))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, r.Text(c.Desc))
}

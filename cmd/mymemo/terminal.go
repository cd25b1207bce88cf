package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"mymemo-client/internal/domain"
	"mymemo-client/internal/listview"
)

// terminal reads answers from the user and prints results. It is also the
// edit session's Confirmer and Navigator.
type terminal struct {
	in  *bufio.Reader
	out io.Writer

	backToList bool
}

func newTerminal(in io.Reader, out io.Writer) *terminal {
	return &terminal{in: bufio.NewReader(in), out: out}
}

func (t *terminal) printf(format string, args ...interface{}) {
	fmt.Fprintf(t.out, format, args...)
}

// ask prints prompt and returns the next input line without its newline.
// ok is false at end of input.
func (t *terminal) ask(prompt string) (string, bool) {
	t.printf("%s", prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", false
	}
	return strings.TrimRight(line, "\r\n"), true
}

// Confirm implements editsession.Confirmer.
func (t *terminal) Confirm(_ context.Context, prompt string) (bool, error) {
	answer, ok := t.ask(prompt + " [y/N] ")
	if !ok {
		return false, io.ErrUnexpectedEOF
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// BackToList implements editsession.Navigator.
func (t *terminal) BackToList(context.Context) {
	t.backToList = true
}

// takeBackToList reports and clears a pending navigation to the list.
func (t *terminal) takeBackToList() bool {
	back := t.backToList
	t.backToList = false
	return back
}

func star(m domain.Memo) string {
	if m.Favourite {
		return "*"
	}
	return " "
}

func (t *terminal) printView(v listview.View) {
	dir := "asc"
	if v.Options.Sorting.Desc {
		dir = "desc"
	}
	header := fmt.Sprintf("%d of %d memos, by %s %s", len(v.Memos), v.Total, v.Options.Sorting.By, dir)
	if f := strings.TrimSpace(v.Options.FilterText); f != "" {
		header += fmt.Sprintf(", matching %q", f)
	}
	if v.Options.ShowFavouritesOnly {
		header += ", starred only"
	}
	t.printf("%s\n", header)

	tw := tabwriter.NewWriter(t.out, 0, 4, 2, ' ', 0)
	for _, m := range v.Memos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", star(m), m.ID, m.Title, m.Created.Local().Format("2 January 2006"))
	}
	tw.Flush()
}

func (t *terminal) printMemo(m domain.Memo) {
	t.printf("%s %s\nMemo: %s\nDate created: %s\nid: %s\n",
		star(m), m.Title, m.Memo, m.Created.Local().Format("2 January 2006"), m.ID)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"mymemo-client/internal/config"
	"mymemo-client/internal/di"
	"mymemo-client/internal/domain"
	"mymemo-client/internal/editsession"
	apperrors "mymemo-client/internal/errors"
	"mymemo-client/internal/listview"
	"mymemo-client/internal/memos"
)

type app struct {
	c      *di.Container
	term   *terminal
	loader *config.Loader
}

type command func(ctx context.Context, args []string) error

func (a *app) commands() map[string]command {
	return map[string]command{
		"signup": a.signup,
		"login":  a.login,
		"logout": a.logout,
		"whoami": a.whoami,
		"list":   a.list,
		"show":   a.show,
		"new":    a.create,
		"edit":   a.edit,
		"star":   a.star,
		"delete": a.remove,
		"watch":  a.watch,
		"shell":  a.shell,
	}
}

func (a *app) dispatch(ctx context.Context, name string, args []string) error {
	cmd, ok := a.commands()[name]
	if !ok {
		return fmt.Errorf("unknown command %q", name)
	}
	return cmd(ctx, args)
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.term.out)
	return fs
}

func (a *app) credentials(args []string, name string) (domain.Credentials, error) {
	fs := a.flags(name)
	username := fs.String("username", "", "username")
	if err := fs.Parse(args); err != nil {
		return domain.Credentials{}, err
	}

	var creds domain.Credentials
	creds.Username = *username
	if creds.Username == "" {
		u, ok := a.term.ask("Username: ")
		if !ok {
			return creds, io.ErrUnexpectedEOF
		}
		creds.Username = u
	}
	p, ok := a.term.ask("Password: ")
	if !ok {
		return creds, io.ErrUnexpectedEOF
	}
	creds.Password = p
	return creds, nil
}

func (a *app) signup(ctx context.Context, args []string) error {
	creds, err := a.credentials(args, "signup")
	if err != nil {
		return err
	}
	user, err := a.c.Session.Signup(ctx, creds)
	if err != nil {
		return err
	}
	a.term.printf("Welcome, %s.\n", user.Username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	creds, err := a.credentials(args, "login")
	if err != nil {
		return err
	}
	user, err := a.c.Session.Login(ctx, creds)
	if err != nil {
		return err
	}
	a.term.printf("Logged in as %s.\n", user.Username)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.c.Session.Logout(ctx); err != nil {
		return err
	}
	a.term.printf("Logged out.\n")
	return nil
}

func (a *app) whoami(_ context.Context, _ []string) error {
	user, ok := a.c.Session.CurrentUser()
	if !ok {
		return listview.ErrNotLoggedIn
	}
	a.term.printf("%s\n", user.Username)
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := a.flags("list")
	sortBy := fs.String("sort", "", "sort by created, title or memo")
	asc := fs.Bool("asc", false, "oldest or A-Z first")
	filter := fs.String("filter", "", "only memos whose title or text contains this")
	starred := fs.Bool("starred", false, "only starred memos")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := a.c.ViewOptions
	if *sortBy != "" {
		field, err := domain.ParseSortField(*sortBy)
		if err != nil {
			return err
		}
		opts.SelectSortField(field)
	}
	if *asc {
		opts.ToggleSortDirection()
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "filter" {
			opts.SetFilterText(*filter)
		}
	})
	if *starred {
		opts.ToggleFavourites()
	}
	return a.render(ctx)
}

func (a *app) render(ctx context.Context) error {
	view, err := a.c.List.View(ctx)
	if errors.Is(err, listview.ErrNotLoggedIn) {
		a.term.printf("You are not logged in. Please login to see your memos.\n")
		return nil
	}
	if err != nil && view.Total == 0 {
		return err
	}
	a.term.printView(view)
	if err != nil {
		a.term.printf("(showing the last list fetched: %s)\n", apperrors.UserMessage(err))
	}
	return nil
}

func (a *app) show(ctx context.Context, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	m, err := a.c.Memos.Get(ctx, id)
	if err != nil {
		return err
	}
	a.term.printMemo(m)
	return nil
}

func (a *app) create(ctx context.Context, args []string) error {
	fs := a.flags("new")
	title := fs.String("title", "", "title")
	body := fs.String("memo", "", "memo text")
	if err := fs.Parse(args); err != nil {
		return err
	}

	s := a.c.Editor.OpenCreate()
	defer s.Close()
	return a.fill(ctx, s, *title, *body, fs.NArg() == 0 && *title == "")
}

func (a *app) edit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("edit needs a memo id")
	}
	fs := a.flags("edit")
	title := fs.String("title", "", "new title")
	body := fs.String("memo", "", "new memo text")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	s, err := a.c.Editor.OpenUpdate(ctx, args[0])
	if err != nil {
		return err
	}
	defer s.Close()

	interactive := *title == "" && *body == ""
	if !interactive {
		// Fields not given on the command line keep their current value.
		form := s.Snapshot().Form
		if *title == "" {
			*title = form.Title
		}
		if *body == "" {
			*body = form.Memo
		}
	}
	return a.fill(ctx, s, *title, *body, interactive)
}

// fill sets the form from title and body, or from prompts when interactive,
// and submits it. Interactive forms are re-prompted after validation errors
// and failed saves until they are saved or cancelled.
func (a *app) fill(ctx context.Context, s *editsession.Session, title, body string, interactive bool) error {
	if !interactive {
		if err := s.SetField(domain.FieldTitle, title); err != nil {
			return err
		}
		if err := s.SetField(domain.FieldMemo, body); err != nil {
			return err
		}
		return a.submit(ctx, s)
	}

	a.term.printf("Empty input keeps the current value, \":q\" cancels.\n")
	for {
		snap := s.Snapshot()
		for _, f := range []struct {
			field   domain.Field
			label   string
			current string
		}{
			{domain.FieldTitle, "Title", snap.Form.Title},
			{domain.FieldMemo, "Memo", snap.Form.Memo},
		} {
			prompt := f.label + ": "
			if f.current != "" {
				prompt = fmt.Sprintf("%s [%s]: ", f.label, f.current)
			}
			if msg := snap.FieldErrors[string(f.field)]; msg != "" {
				a.term.printf("%s\n", msg)
			}
			line, ok := a.term.ask(prompt)
			if !ok || line == ":q" {
				cancelled, err := s.Cancel(ctx)
				if err != nil {
					return err
				}
				if cancelled {
					a.term.printf("Cancelled.\n")
					return nil
				}
				continue
			}
			if line != "" {
				if err := s.SetField(f.field, line); err != nil {
					return err
				}
			}
		}

		err := a.submit(ctx, s)
		switch {
		case err == nil:
			return nil
		case apperrors.IsValidation(err):
		default:
			a.term.printf("Oops! %s\n", apperrors.UserMessage(err))
			retry, cerr := a.term.Confirm(ctx, "Try again?")
			if cerr != nil || !retry {
				return err
			}
		}
	}
}

func (a *app) submit(ctx context.Context, s *editsession.Session) error {
	mode := s.Snapshot().Mode
	res, err := s.Submit(ctx)
	if err != nil {
		return err
	}
	verb := "created"
	if mode == editsession.ModeUpdate {
		verb = "updated"
	}
	if res.Outcome == editsession.NoOpSkip {
		a.term.printf("Nothing changed.\n")
	} else {
		a.term.printf("Memo %s successfully.\n", verb)
	}
	if a.term.takeBackToList() {
		return a.render(ctx)
	}
	return nil
}

func (a *app) star(ctx context.Context, args []string) error {
	id, err := oneID(args)
	if err != nil {
		return err
	}
	if err := a.c.List.ToggleStar(ctx, id); err != nil {
		return err
	}
	return a.render(ctx)
}

func (a *app) remove(ctx context.Context, args []string) error {
	fs := a.flags("delete")
	yes := fs.Bool("yes", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := oneID(fs.Args())
	if err != nil {
		return err
	}

	if !*yes {
		m, err := a.c.Memos.Get(ctx, id)
		if err != nil {
			return err
		}
		ok, err := a.term.Confirm(ctx, fmt.Sprintf("This memo will be deleted: %q. Continue?", m.Title))
		if err != nil || !ok {
			return err
		}
	}
	if err := a.c.List.Delete(ctx, id); err != nil {
		return err
	}
	return a.render(ctx)
}

// watch keeps the list on screen. The list is invalidated every interval so
// that the cache refetches it; a view is printed whenever it differs from
// the previous one.
func (a *app) watch(ctx context.Context, args []string) error {
	fs := a.flags("watch")
	interval := fs.Duration("interval", 10*time.Second, "refresh interval")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		ticker := time.NewTicker(*interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				a.c.Cache.Invalidate(memos.ListTag)
			}
		}
	}()

	var last string
	err := a.c.List.Watch(ctx, func(v listview.View, err error) {
		if err != nil {
			if errors.Is(err, listview.ErrNotLoggedIn) || apperrors.IsAuth(err) {
				a.term.printf("You are not logged in. Please login to see your memos.\n")
				cancel()
				return
			}
			a.c.Logger.Warn("List refresh failed", zap.Error(err))
			return
		}
		key := fingerprint(v)
		if key == last {
			return
		}
		last = key
		a.term.printf("\n%s\n", time.Now().Format("15:04:05"))
		a.term.printView(v)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func fingerprint(v listview.View) string {
	parts := make([]string, 0, len(v.Memos))
	for _, m := range v.Memos {
		parts = append(parts, fmt.Sprintf("%s|%s|%s|%t", m.ID, m.Title, m.Memo, m.Favourite))
	}
	return strings.Join(parts, "\n")
}

func oneID(args []string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", errors.New("expected exactly one memo id")
	}
	return args[0], nil
}

func commandNames(cmds map[string]command) []string {
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

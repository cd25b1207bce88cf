package main

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"mymemo-client/internal/config"
	"mymemo-client/internal/domain"
	apperrors "mymemo-client/internal/errors"
)

// shell runs commands read from the terminal against one container, so the
// cache and view options persist between commands.
func (a *app) shell(ctx context.Context, _ []string) error {
	if w := a.watchConfig(); w != nil {
		defer w.Stop()
	}

	cmds := a.commands()
	delete(cmds, "shell")
	delete(cmds, "watch")
	opts := a.c.ViewOptions
	views := map[string]func(args []string) error{
		"sort": func(args []string) error {
			if len(args) != 1 {
				return errors.New("sort needs one of created, title, memo")
			}
			field, err := domain.ParseSortField(args[0])
			if err != nil {
				return err
			}
			opts.SelectSortField(field)
			return nil
		},
		"reverse": func([]string) error { opts.ToggleSortDirection(); return nil },
		"filter": func(args []string) error {
			opts.SetFilterText(strings.Join(args, " "))
			return nil
		},
		"clear":   func([]string) error { opts.ClearFilterText(); return nil },
		"starred": func([]string) error { opts.ToggleFavourites(); return nil },
	}

	a.term.printf("mymemo shell. Type \"help\" for commands.\n")
	if a.c.Session.IsLoggedIn() {
		if err := a.render(ctx); err != nil {
			a.term.printf("%s\n", apperrors.UserMessage(err))
		}
	}

	for ctx.Err() == nil {
		line, ok := a.term.ask("> ")
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]

		var err error
		switch {
		case name == "quit" || name == "exit":
			return nil
		case name == "help":
			a.term.printf("commands: %s, %s\n",
				strings.Join(commandNames(cmds), ", "),
				"sort, reverse, filter, clear, starred, quit")
		case views[name] != nil:
			if err = views[name](args); err == nil {
				err = a.render(ctx)
			}
		case cmds[name] != nil:
			err = cmds[name](ctx, args)
		default:
			err = errors.New("unknown command, try \"help\"")
		}
		if err != nil {
			a.term.printf("%s\n", apperrors.UserMessage(err))
		}
	}
	return ctx.Err()
}

// watchConfig reloads the configuration file while the shell runs and
// applies log level changes. It returns nil when there is no file to watch.
func (a *app) watchConfig() *config.Watcher {
	w, err := config.NewWatcher(a.loader, a.c.Config, a.c.Logger)
	if err != nil {
		a.c.Logger.Debug("Configuration reloading disabled", zap.Error(err))
		return nil
	}
	w.OnChange(func(cfg *config.Config) {
		level, err := zapcore.ParseLevel(cfg.Logging.Level)
		if err != nil {
			a.c.Logger.Warn("Ignoring invalid log level", zap.String("level", cfg.Logging.Level))
			return
		}
		a.c.Logging.Level.SetLevel(level)
		a.c.Logger.Info("Log level changed", zap.Stringer("level", level))
	})
	return w
}

// Command mymemo is a terminal client for the memo service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"mymemo-client/internal/config"
	"mymemo-client/internal/di"
	apperrors "mymemo-client/internal/errors"
)

const usage = `usage: mymemo [-config file] <command> [arguments]

commands:
  signup [-username name]       create an account and log in
  login [-username name]        log in
  logout                        log out
  whoami                        show the logged-in user
  list [-sort f] [-asc] [-filter text] [-starred]
                                show memos
  show <id>                     show one memo
  new [-title t] [-memo m]      create a memo
  edit <id> [-title t] [-memo m]
                                change a memo
  star <id>                     toggle the favourite flag
  delete [-yes] <id>            delete a memo
  watch [-interval d]           keep the list on screen, refreshing it
  shell                         interactive mode
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "mymemo:", apperrors.UserMessage(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	global := flag.NewFlagSet("mymemo", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }
	configPath := global.String("config", defaultPath("config.yaml"), "configuration file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return flag.ErrHelp
	}

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	if cfg.Credentials.Path == "" {
		cfg.Credentials.Path = defaultPath("credentials.db")
	}

	term := newTerminal(stdin, stdout)
	container, cleanup, err := di.InitializeContainer(ctx, cfg, term, term)
	if err != nil {
		return err
	}
	defer cleanup()

	a := &app{
		c:      container,
		term:   term,
		loader: loader,
	}
	return a.dispatch(ctx, global.Arg(0), global.Args()[1:])
}

// defaultPath returns name inside the user's mymemo config directory, or
// name itself when there is no such directory.
func defaultPath(name string) string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return name
	}
	return filepath.Join(dir, "mymemo", name)
}

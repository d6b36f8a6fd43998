// Package cli is the command line front end of the contact book. It offers one command per
// operation and an interactive menu.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gitlab.com/dirk.krummacker/contact-book/internal/config"
	"gitlab.com/dirk.krummacker/contact-book/internal/logger"
	"gitlab.com/dirk.krummacker/contact-book/internal/persist"
	"gitlab.com/dirk.krummacker/contact-book/internal/store"
)

// errInputClosed is returned by prompts when the input ends.
var errInputClosed = errors.New("input closed")

// app carries the state shared by all commands of one invocation.
type app struct {
	cfg *config.Config
	log *zap.Logger

	// Flags of the root command.
	file    string
	backend string
	verbose bool

	// Set while a command that works on the contact book is running.
	storage persist.Backend
	book    *store.Book

	in     *bufio.Reader
	out    io.Writer
	render renderer
}

// Option configures the command tree.
type Option func(*app)

// WithLogger makes all commands log to log instead of building a logger from the configuration.
func WithLogger(log *zap.Logger) Option {
	return func(a *app) {
		a.log = log
	}
}

// NewRootCommand builds the command tree of the contact book. Flag defaults are taken from cfg.
//
// Usage example on the command line:
//
//	> contacts add "Erika Mustermann" --phone "+49 0815 4711 00" --group Family
//	> contacts search erika
//	> contacts
func NewRootCommand(cfg *config.Config, opts ...Option) *cobra.Command {
	a := &app{cfg: cfg}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:   "contacts",
		Short: "A personal contact book on the command line",
		Long: `contacts keeps your personal contacts in a local file.

Run without arguments to start the interactive menu.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Sync()
		},
		Args: cobra.NoArgs,
		RunE: a.withBook(a.runMenu),
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVarP(&a.file, "file", "f", "", "contacts file (default "+config.DefaultJSONPath+", or "+config.DefaultSQLitePath+" for sqlite)")
	root.PersistentFlags().StringVar(&a.backend, "backend", cfg.Storage.Backend, "storage backend: "+strings.Join(config.Backends, ", "))
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		a.newAddCommand(),
		a.newSearchCommand(),
		a.newUpdateCommand(),
		a.newDeleteCommand(),
		a.newListCommand(),
		a.newExportCommand(),
		a.newStatsCommand(),
		a.newMenuCommand(),
	)
	return root
}

// setup applies the root flags to the configuration and prepares logger and terminal I/O.
func (a *app) setup(cmd *cobra.Command) error {
	a.cfg.Storage.Backend = a.backend
	if a.file != "" {
		a.cfg.Storage.Path = a.file
	}
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	if a.log == nil {
		log, err := logger.New(a.cfg.LogLevel, a.verbose)
		if err != nil {
			return err
		}
		a.log = log
	}
	a.in = bufio.NewReader(cmd.InOrStdin())
	a.out = cmd.OutOrStdout()
	a.render = renderer{styled: isTerminal(a.out)}
	return nil
}

// isTerminal reports whether w is a terminal that can show styled text.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// withBook wraps a command so that the contact book is loaded before it runs and the storage is
// closed afterwards.
func (a *app) withBook(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.open(); err != nil {
			return err
		}
		defer a.close()
		return run(cmd, args)
	}
}

// open opens the configured storage backend and loads the contact book. A corrupt file is not an
// error: the user is told and the book starts empty.
func (a *app) open() error {
	path := a.cfg.StoragePath()
	switch a.cfg.Storage.Backend {
	case config.BackendSQLite:
		backend, err := persist.OpenSQLite(path)
		if err != nil {
			return err
		}
		a.storage = backend
	default:
		a.storage = persist.NewJSONFile(path)
	}
	a.log.Debug("Loading contacts", zap.String("backend", a.cfg.Storage.Backend), zap.String("path", path))

	book, err := a.storage.Load()
	if errors.Is(err, persist.ErrCorruptFile) {
		a.log.Warn("Contacts file is corrupt, starting with an empty contact book", zap.Error(err))
		a.render.failure(a.out, "Error loading contacts file. Starting with empty contacts.")
	} else if err != nil {
		a.storage.Close()
		return err
	}
	a.book = book
	a.log.Info("Loaded contacts", zap.Int("count", book.Len()), zap.String("path", path))
	return nil
}

// close releases the storage backend.
func (a *app) close() {
	if err := a.storage.Close(); err != nil {
		a.log.Warn("Closing the contacts storage failed", zap.Error(err))
	}
}

// save writes the contact book to the storage backend.
func (a *app) save() error {
	if err := a.storage.Save(a.book); err != nil {
		a.log.Error("Saving contacts failed", zap.Error(err))
		return err
	}
	a.log.Debug("Saved contacts", zap.Int("count", a.book.Len()))
	return nil
}

// prompt shows a question and returns the answer with surrounding white space removed. It returns
// errInputClosed once the input has ended.
func (a *app) prompt(question string) (string, error) {
	fmt.Fprint(a.out, question)
	line, err := a.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(a.out)
			return "", errInputClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question and reports whether the answer equals want, ignoring case.
func (a *app) confirm(question string, want string) (bool, error) {
	answer, err := a.prompt(question)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(answer, want), nil
}

// Package repl implements the interactive shell over the indexer: a small
// command table with aliases, liner-backed line editing and history, and
// styled output when attached to a terminal.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/tokendex/tokendex/pkg/indexer"
)

// Command is one REPL command.
type Command struct {
	Name string
	Help string
	Run  func(args string) error
}

// Repl dispatches user input to commands. Aliases resolve to command names
// before dispatch; unknown input is reported on stderr.
type Repl struct {
	idx *indexer.Indexer

	commands map[string]*Command
	aliases  map[string]string

	out    io.Writer
	errOut io.Writer
	styles Styles

	historyFile string
	quit        bool
}

// New builds a REPL bound to idx. historyFile may be empty to disable
// persistent history.
func New(idx *indexer.Indexer, historyFile string, color bool) *Repl {
	r := &Repl{
		idx:         idx,
		commands:    make(map[string]*Command),
		aliases:     make(map[string]string),
		out:         os.Stdout,
		errOut:      os.Stderr,
		historyFile: historyFile,
	}
	if color && isatty.IsTerminal(os.Stdout.Fd()) {
		r.styles = DefaultStyles()
	} else {
		r.styles = NoColorStyles()
	}
	r.registerBuiltins()
	return r
}

// AddCommand registers a command.
func (r *Repl) AddCommand(cmd *Command) {
	r.commands[cmd.Name] = cmd
}

// AddAlias maps alias to an existing command name.
func (r *Repl) AddAlias(alias, name string) {
	r.aliases[alias] = name
}

func (r *Repl) registerBuiltins() {
	r.AddCommand(&Command{
		Name: "help",
		Help: "help [cmd] - show help for a command, or list all commands",
		Run:  r.runHelp,
	})
	r.AddAlias("h", "help")
	r.AddAlias("?", "help")

	r.AddCommand(&Command{
		Name: "add",
		Help: "add [-r] <path> - register a path for indexing; -r recurses into subdirectories",
		Run:  r.runAdd,
	})

	r.AddCommand(&Command{
		Name: "search",
		Help: "search <token> - print the files containing token, one per line",
		Run:  r.runSearch,
	})

	r.AddCommand(&Command{
		Name: "stats",
		Help: "stats [-v] - show index size; -v verifies internal consistency",
		Run:  r.runStats,
	})

	r.AddCommand(&Command{
		Name: "quit",
		Help: "quit - exit the shell",
		Run: func(string) error {
			r.quit = true
			return nil
		},
	})
	r.AddAlias("q", "quit")
}

// Dispatch parses one input line and runs the matching command.
// Unknown commands print `Unknown syntax: '<cmd>'` to stderr.
func (r *Repl) Dispatch(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}

	name, args := input, ""
	if i := strings.IndexByte(input, ' '); i >= 0 {
		name = input[:i]
		args = strings.TrimSpace(input[i+1:])
	}

	if target, ok := r.aliases[name]; ok {
		name = target
	}
	cmd, ok := r.commands[name]
	if !ok {
		fmt.Fprintf(r.errOut, "Unknown syntax: '%s'\n", name)
		return nil
	}
	return cmd.Run(args)
}

// Run reads commands until quit or EOF. With a terminal on stdin it uses
// liner for editing and history; otherwise it falls back to plain line
// reading so piped input works.
func (r *Repl) Run() error {
	fmt.Fprintln(r.out, r.styles.Dim.Render(`Type "help" or "?" for help, "quit" to quit`))

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return r.runPlain()
	}
	return r.runInteractive()
}

func (r *Repl) runInteractive() error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	loadHistory(line, r.historyFile)
	defer saveHistory(line, r.historyFile)

	prompt := r.styles.Prompt.Render(">>> ")
	for !r.quit {
		input, err := line.Prompt(prompt)
		if err != nil {
			// EOF and Ctrl+C both end the session cleanly.
			fmt.Fprintln(r.out)
			return nil
		}
		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if err := r.Dispatch(input); err != nil {
			fmt.Fprintf(r.errOut, "%s %v\n", r.styles.Error.Render("error:"), err)
		}
	}
	return nil
}

func (r *Repl) runPlain() error {
	scanner := bufio.NewScanner(os.Stdin)
	for !r.quit && scanner.Scan() {
		if err := r.Dispatch(scanner.Text()); err != nil {
			fmt.Fprintf(r.errOut, "%s %v\n", r.styles.Error.Render("error:"), err)
		}
	}
	return scanner.Err()
}

func (r *Repl) runHelp(args string) error {
	if args == "" {
		names := make([]string, 0, len(r.commands))
		for name := range r.commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(r.out, r.commands[name].Help)
		}
		return nil
	}

	name := args
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	cmd, ok := r.commands[name]
	if !ok {
		fmt.Fprintf(r.errOut, "Unknown syntax: '%s'\n", args)
		return nil
	}
	fmt.Fprintln(r.out, cmd.Help)
	return nil
}

func (r *Repl) runAdd(args string) error {
	recursive := indexer.RecursiveNo
	if args == "-r" {
		args = ""
	} else if rest, ok := strings.CutPrefix(args, "-r "); ok {
		recursive = indexer.RecursiveYes
		args = strings.TrimSpace(rest)
	}
	if args == "" {
		fmt.Fprintln(r.errOut, "add: missing path")
		return nil
	}

	start := time.Now()
	if err := r.idx.AddPath(args, recursive); err != nil {
		return err
	}
	fmt.Fprintf(r.errOut, "Took ~%s to index\n", formatDuration(time.Since(start)))
	return nil
}

func (r *Repl) runSearch(args string) error {
	if args == "" {
		fmt.Fprintln(r.errOut, "search: missing token")
		return nil
	}
	for _, path := range r.idx.Search(args) {
		fmt.Fprintln(r.out, path)
	}
	return nil
}

func (r *Repl) runStats(args string) error {
	files, tokens := r.idx.Stats()
	fmt.Fprintf(r.out, "%d files, %d distinct tokens\n", files, tokens)

	if args == "-v" {
		result := r.idx.CheckConsistency()
		if result.Consistent() {
			fmt.Fprintf(r.out, "index consistent (checked in %s)\n", formatDuration(result.Duration))
			return nil
		}
		for _, issue := range result.Inconsistencies {
			fmt.Fprintf(r.errOut, "%s %s: %s\n",
				r.styles.Error.Render("inconsistency"), issue.Type, issue.Details)
		}
	}
	return nil
}

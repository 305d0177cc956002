package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Hanaasagi/patlight/internal"
	"github.com/Hanaasagi/patlight/internal/config"
	"github.com/Hanaasagi/patlight/internal/highlight"
	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

const stdinURI = "stdin"

// readDocuments snapshots every file in paths, or stdin when paths is empty.
func readDocuments(paths []string, stdin io.Reader) ([]*highlight.TextDocument, error) {
	if len(paths) == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		doc, err := highlight.NewTextDocumentFromBytes(stdinURI, data)
		if err != nil {
			return nil, err
		}
		return []*highlight.TextDocument{doc}, nil
	}

	docs := make([]*highlight.TextDocument, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, err
		}
		doc, err := highlight.NewTextDocumentFromBytes("file://"+filepath.ToSlash(abs), data)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

type selectionOptions struct {
	set     string
	isolate bool
}

func (o *selectionOptions) bind(c *cobra.Command, setDefault string) {
	c.Flags().StringVarP(&o.set, "set", "s", setDefault, fmt.Sprintf("Pattern set to highlight (a set name, %q or %q)", highlight.OptionAll, highlight.OptionClear))
	c.Flags().BoolVarP(&o.isolate, "isolate", "i", false, "Only match occurrences surrounded by separators")
}

// checkChoice rejects a set name that matches no loaded set. All and Clear
// Highlights are always valid, even without sets.
func checkChoice(choice string, sets []patternmatch.PatternSet) error {
	if choice == highlight.OptionAll || choice == highlight.OptionClear {
		return nil
	}
	if len(highlight.ResolveChoice(choice, sets)) == 0 {
		return fmt.Errorf("unknown pattern set %q", choice)
	}
	return nil
}

type showOptions struct {
	selectionOptions
	noAnnotations bool
	noColor       bool
}

var errNoSet = errors.New("no pattern set selected: pass --set or run in a terminal")

func newShowCommand(g *globalOptions) *cobra.Command {
	opts := &showOptions{}
	c := &cobra.Command{
		Use:   "show [FILE...]",
		Short: "Print documents with highlights and annotations",
		Long: "Print each FILE (or stdin) with the matches of the chosen pattern set coloured and each\n" +
			"match's description shown on a line above it. Without --set the set and isolation mode\n" +
			"are picked interactively.",
		Example: "  patlight show --set Default main.go\n  git diff | patlight show -s All -i",
		RunE: func(c *cobra.Command, args []string) error {
			env, err := g.load()
			if err != nil {
				return err
			}
			docs, err := readDocuments(args, c.InOrStdin())
			if err != nil {
				return err
			}
			return runShow(c.OutOrStdout(), c.ErrOrStderr(), env, docs, opts)
		},
	}
	opts.bind(c, "")
	c.Flags().BoolVar(&opts.noAnnotations, "no-annotations", false, "Do not print annotation lines")
	c.Flags().BoolVar(&opts.noColor, "no-color", false, "Do not colour matches")
	return c
}

// promptSelection runs the highlight command against the first document and
// returns the choice it left behind. A cancelled prompt leaves no highlights.
func promptSelection(session *highlight.Session) (selectionOptions, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) && !term.IsTerminal(int(os.Stdout.Fd())) {
		return selectionOptions{}, errNoSet
	}
	qp, err := internal.NewQuickPick()
	if err != nil {
		return selectionOptions{}, err
	}
	defer qp.Close() // nolint: errcheck

	if _, err := session.RunHighlightCommand(qp); err != nil {
		return selectionOptions{}, err
	}
	selection := session.Selection()
	if selection.Empty() {
		return selectionOptions{set: highlight.OptionClear}, nil
	}
	return selectionOptions{set: selection.Choice, isolate: selection.Isolated}, nil
}

func runShow(stdout, stderr io.Writer, env *environment, docs []*highlight.TextDocument, opts *showOptions) error {
	printOpts := internal.PrintOptions{
		Color:       !opts.noColor && !color.NoColor,
		Annotations: !opts.noAnnotations,
	}
	selection := opts.selectionOptions
	if selection.set != "" {
		if err := checkChoice(selection.set, env.sets); err != nil {
			return err
		}
	}

	for i, doc := range docs {
		printer := internal.NewPrinter(doc)
		session := highlight.NewSession(env.sets, env.settings, highlight.WithDiagnostics(func(err error) {
			fmt.Fprintf(stderr, "%s: %s: %v\n", config.AppName, doc.URI(), err)
		}))
		session.FocusChanged(printer)

		if selection.set == "" {
			picked, err := promptSelection(session)
			if err != nil {
				return err
			}
			selection = picked
		} else {
			session.Select(selection.set, selection.isolate)
		}

		if len(docs) > 1 {
			if i > 0 {
				fmt.Fprintln(stdout)
			}
			fmt.Fprintf(stdout, "==> %s <==\n", doc.URI())
		}
		annotations := session.Annotations().ProvideAnnotations(printer.Document())
		if err := printer.Print(stdout, annotations, printOpts); err != nil {
			return err
		}
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Hanaasagi/patlight/internal/config"
	"github.com/Hanaasagi/patlight/internal/highlight"
	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

// scanRecord is one match as written by the scan command.
type scanRecord struct {
	File        string `json:"file"`
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Line        int    `json:"line"`
	Character   int    `json:"character"`
	Description string `json:"description"`
	Set         string `json:"set"`
	Expression  string `json:"expression"`
}

func newScanCommand(g *globalOptions) *cobra.Command {
	opts := &selectionOptions{}
	c := &cobra.Command{
		Use:   "scan [FILE...]",
		Short: "Print matches as JSON lines",
		Long: "Scan each FILE (or stdin) with the chosen pattern set and write one JSON object per match.\n" +
			"Offsets count characters; line and character are zero based.",
		Example: "  patlight scan src/*.go\n  patlight scan --set Default --isolate notes.md",
		RunE: func(c *cobra.Command, args []string) error {
			env, err := g.load()
			if err != nil {
				return err
			}
			docs, err := readDocuments(args, c.InOrStdin())
			if err != nil {
				return err
			}
			return runScan(c.OutOrStdout(), c.ErrOrStderr(), env, docs, *opts)
		},
	}
	opts.bind(c, highlight.OptionAll)
	return c
}

func runScan(stdout, stderr io.Writer, env *environment, docs []*highlight.TextDocument, opts selectionOptions) error {
	if err := checkChoice(opts.set, env.sets); err != nil {
		return err
	}
	selection := highlight.Selection{
		Choice:     opts.set,
		ActiveSets: highlight.ResolveChoice(opts.set, env.sets),
		Isolated:   opts.isolate,
	}

	scanner := patternmatch.NewScanner(patternmatch.WithMatchTimeout(env.settings.ScanTimeout))
	enc := json.NewEncoder(stdout)
	for _, doc := range docs {
		result := highlight.Rerender(scanner, selection, env.settings, doc.Text())
		for _, diag := range result.Diagnostics {
			fmt.Fprintf(stderr, "%s: %s: %v\n", config.AppName, doc.URI(), diag)
		}
		for _, record := range result.Records {
			pos := doc.PositionAt(record.Start)
			if err := enc.Encode(scanRecord{
				File:        doc.URI(),
				Start:       record.Start,
				End:         record.End,
				Line:        pos.Line,
				Character:   pos.Character,
				Description: record.Description,
				Set:         record.SetName,
				Expression:  record.SourceExpression,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

var (
	setNameStyle = color.New(color.Bold, color.FgHiGreen)
	affixStyle   = color.New(color.FgHiBlack)
	regexStyle   = color.New(color.FgHiYellow)
	literalStyle = color.New(color.FgHiCyan)
)

func newSetsCommand(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sets",
		Short: "List the loaded pattern sets",
		Long:  "List every pattern set from the pattern file with its patterns. The file is created with\nthe default sets when it does not exist.",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, _ []string) error {
			env, err := g.load()
			if err != nil {
				return err
			}
			fmt.Fprintf(c.OutOrStdout(), "%s\n\n", affixStyle.Sprint(env.patternsPath))
			writeSets(c.OutOrStdout(), env.sets)
			return nil
		},
	}
}

func writeSets(w io.Writer, sets []patternmatch.PatternSet) {
	for i, set := range sets {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, setNameStyle.Sprint(set.Name))
		if set.Prefix != "" || set.Postfix != "" {
			fmt.Fprint(w, " ", affixStyle.Sprintf("prefix %q postfix %q", set.Prefix, set.Postfix))
		}
		fmt.Fprintln(w)

		width := 0
		for _, p := range set.Patterns {
			width = max(width, runewidth.StringWidth(p.Source.String()))
		}
		for _, p := range set.Patterns {
			source := p.Source.String()
			style := literalStyle
			if p.Source.Kind == patternmatch.Regex {
				style = regexStyle
			}
			padding := strings.Repeat(" ", width-runewidth.StringWidth(source))
			fmt.Fprintf(w, "  %s%s  %s\n", style.Sprint(source), padding, p.Description)
		}
	}
}

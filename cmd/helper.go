// Package cmd holds the cobra help and usage rendering shared by the
// patlight commands.
//
// nolint:errcheck
package cmd

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// ProjectURL is printed at the end of every help page.
const ProjectURL = "https://github.com/Hanaasagi/patlight"

var (
	titleStyle       = color.New(color.Bold, color.FgHiWhite)
	commandStyle     = color.New(color.FgHiGreen)
	descriptionStyle = color.New(color.FgHiCyan)
	exampleStyle     = color.New(color.FgHiCyan)
	flagStyle        = color.New(color.Bold, color.FgHiCyan)
	tipStyle         = color.New(color.FgHiYellow)
)

// HelpTemplate prints the long description before the coloured usage.
var HelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}{{if or .Runnable .HasSubCommands}}{{.UsageString}}{{end}}` + titleStyle.Sprint("Project:") + color.New(color.FgYellow).Sprintln(
	"	"+ProjectURL,
)

func rpad(s string, padding int) string {
	return fmt.Sprintf("%-*s", padding, s)
}

func trimRightSpace(s string) string {
	return strings.TrimRightFunc(s, unicode.IsSpace)
}

var (
	reWithShort = regexp.MustCompile(`^( {2,})(-[a-zA-Z]), (--[a-zA-Z0-9-]+)(.*)$`)
	reLongOnly  = regexp.MustCompile(`^( {2,})(--[a-zA-Z0-9-]+)(.*)$`)
)

// colorFlags paints the flag names of a pflag usage block.
func colorFlags(raw string) []byte {
	var out bytes.Buffer
	for _, line := range strings.Split(raw, "\n") {
		if m := reWithShort.FindStringSubmatch(line); m != nil {
			out.WriteString(m[1])
			flagStyle.Fprint(&out, m[2])
			out.WriteString(", " + m[3] + m[4])
		} else if m := reLongOnly.FindStringSubmatch(line); m != nil {
			out.WriteString(m[1])
			flagStyle.Fprint(&out, m[2])
			out.WriteString(m[3])
		} else {
			out.WriteString(line)
		}
		out.WriteByte('\n')
	}
	return bytes.TrimSuffix(out.Bytes(), []byte{'\n'})
}

func section(buf *bytes.Buffer, title string) {
	fmt.Fprint(buf, "\n\n")
	titleStyle.Fprint(buf, title)
}

func listCommands(buf *bytes.Buffer, cmds []*cobra.Command, name func(*cobra.Command) string, padding func(*cobra.Command) int, keep func(*cobra.Command) bool) {
	for _, sub := range cmds {
		if !keep(sub) {
			continue
		}
		fmt.Fprint(buf, "\n  ")
		commandStyle.Fprint(buf, rpad(name(sub), padding(sub)))
		fmt.Fprint(buf, " ")
		descriptionStyle.Fprint(buf, sub.Short)
	}
}

// ColorUsageFunc writes the usage of cmd with coloured titles, commands and
// flags.
func ColorUsageFunc(w io.Writer, cmd *cobra.Command) error {
	buf := &bytes.Buffer{}

	titleStyle.Fprint(buf, "Usage:")
	if cmd.Runnable() {
		fmt.Fprint(buf, "\n  ")
		commandStyle.Fprint(buf, cmd.UseLine())
	}
	if cmd.HasAvailableSubCommands() {
		fmt.Fprint(buf, "\n  ")
		commandStyle.Fprintf(buf, "%s [command]", cmd.CommandPath())
	}

	if len(cmd.Aliases) > 0 {
		section(buf, "Aliases:")
		fmt.Fprint(buf, "\n  ")
		commandStyle.Fprint(buf, strings.Join(cmd.Aliases, ", "))
	}

	if cmd.HasExample() {
		section(buf, "Examples:")
		fmt.Fprint(buf, "\n")
		exampleStyle.Fprint(buf, cmd.Example)
	}

	if cmd.HasAvailableSubCommands() {
		section(buf, "Available Commands:")
		listCommands(buf, cmd.Commands(), (*cobra.Command).Name, (*cobra.Command).NamePadding, func(sub *cobra.Command) bool {
			return sub.IsAvailableCommand() || sub.Name() == "help"
		})
	}

	if cmd.HasAvailableLocalFlags() {
		section(buf, "Flags:")
		fmt.Fprint(buf, "\n")
		buf.Write(colorFlags(trimRightSpace(cmd.LocalFlags().FlagUsages())))
	}

	if cmd.HasAvailableInheritedFlags() {
		section(buf, "Global Flags:")
		fmt.Fprint(buf, "\n")
		buf.Write(colorFlags(trimRightSpace(cmd.InheritedFlags().FlagUsages())))
	}

	if cmd.HasHelpSubCommands() {
		section(buf, "Additional help topics:")
		listCommands(buf, cmd.Commands(), (*cobra.Command).CommandPath, (*cobra.Command).CommandPathPadding, (*cobra.Command).IsAdditionalHelpTopicCommand)
	}

	if cmd.HasAvailableSubCommands() {
		fmt.Fprint(buf, "\n\n")
		tipStyle.Fprintf(buf, "Use \"%s [command] --help\" for more information about a command.", cmd.CommandPath())
	}

	fmt.Fprintln(buf)

	_, err := w.Write(buf.Bytes())
	return err
}

// Apply installs the coloured help and usage on root and its subcommands.
func Apply(root *cobra.Command) {
	root.SetHelpTemplate(HelpTemplate)
	root.SetUsageFunc(func(c *cobra.Command) error {
		return ColorUsageFunc(c.OutOrStderr(), c)
	})
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/codey"
	"github.com/fwojciec/codey/chroma"
	"github.com/fwojciec/codey/export"
	"github.com/fwojciec/codey/goldmark"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

const shortID = 8

func newSessionsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"ls"},
		Short:   "List saved conversations",
		Long: `List saved conversations, newest first. The active one is marked
with an asterisk. IDs may be abbreviated to any unique prefix.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return listSessions(cmd.OutOrStdout(), a.store.List(), a.store.ActiveID())
		},
	}
}

func listSessions(out io.Writer, sessions []codey.Session, active string) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, " \tID\tTITLE\tMESSAGES\tUPDATED")
	for _, s := range sessions {
		marker, title := " ", s.Title
		if s.ID == active {
			marker, title = "*", activeStyle.Render(s.Title)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			marker, abbrev(s.ID), title, len(s.Messages), dimStyle.Render(updated(s)))
	}
	return w.Flush()
}

func abbrev(id string) string {
	if len(id) > shortID {
		return id[:shortID]
	}
	return id
}

func updated(s codey.Session) string {
	t := s.UpdatedAt
	if t.IsZero() {
		t = s.CreatedAt
	}
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

// findSession resolves an ID or unique ID prefix. Empty selects the active
// session.
func findSession(sessions []codey.Session, active, ref string) (codey.Session, error) {
	if ref == "" {
		ref = active
	}
	var matches []codey.Session
	for _, s := range sessions {
		if s.ID == ref {
			return s, nil
		}
		if strings.HasPrefix(s.ID, ref) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return codey.Session{}, fmt.Errorf("session %q: %w", ref, codey.ErrSessionNotFound)
	case 1:
		return matches[0], nil
	default:
		return codey.Session{}, fmt.Errorf("session prefix %q matches %d sessions", ref, len(matches))
	}
}

func newExportCmd(o *options) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export [session]",
		Short: "Export a conversation",
		Long: `Export a conversation as markdown, HTML, JSON or YAML. Without a
session argument the active conversation is exported. HTML output has
syntax-highlighted code blocks.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := o.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var ref string
			if len(args) == 1 {
				ref = args[0]
			}
			sess, err := findSession(a.store.List(), a.store.ActiveID(), ref)
			if err != nil {
				return err
			}
			hl := chroma.New(chroma.WithStyle(a.cfg.UI.CodeStyle))
			exp, err := export.New(format, goldmark.New(hl))
			if err != nil {
				return err
			}

			if output == "" {
				return exp.Export(sess, cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			if err := exp.Export(sess, f); err != nil {
				f.Close()
				return fmt.Errorf("export: %w", err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close output: %w", err)
			}
			a.logger.Info("exported",
				zap.String("session", sess.ID),
				zap.String("format", format),
				zap.String("path", output))
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %q to %s\n", sess.Title, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "Output format: "+strings.Join(export.Formats, ", "))
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/blogdesk/blogdesk/internal/frontmatter"
)

var postFilename = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-.+\.(md|markdown)$`)

func newFrontmatterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frontmatter",
		Short: "Inspect and normalise post frontmatter",
	}
	cmd.AddCommand(newFrontmatterCheckCmd(), newFrontmatterFmtCmd())
	return cmd
}

// checkDocument returns the problems found in one content file.
func checkDocument(name, text string) []string {
	doc := frontmatter.Parse(text)
	if doc.Frontmatter.Len() == 0 && doc.Body == text {
		return []string{"no frontmatter block"}
	}
	var problems []string
	if doc.Frontmatter.String("title") == "" {
		problems = append(problems, "missing title")
	}
	if filepath.Base(filepath.Dir(name)) == "_posts" && !postFilename.MatchString(filepath.Base(name)) {
		problems = append(problems, "post filename must look like YYYY-MM-DD-slug.md")
	}
	return problems
}

func newFrontmatterCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <file>...",
		Short: "Report files whose frontmatter the admin console cannot edit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, name := range args {
				b, err := os.ReadFile(name)
				if err != nil {
					return err
				}
				problems := checkDocument(name, string(b))
				if len(problems) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", name)
					continue
				}
				failed++
				for _, p := range problems {
					fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %s\n", name, p)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}

func newFrontmatterFmtCmd() *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt <file>",
		Short: "Rewrite a file's frontmatter the way the admin console saves it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out := frontmatter.Parse(string(b)).Render()
			if !write {
				_, err := fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			if out == string(b) {
				return nil
			}
			info, err := os.Stat(args[0])
			if err != nil {
				return err
			}
			return os.WriteFile(args[0], []byte(out), info.Mode().Perm())
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back instead of printing it")
	return cmd
}

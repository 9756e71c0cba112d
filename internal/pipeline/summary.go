package pipeline

import (
	"github.com/jedib0t/go-pretty/v6/table"
)

// Summary counts per-run outcomes by media kind.
type Summary struct {
	TVSuccess      int
	TVFailure      int
	MovieSuccess   int
	MovieFailure   int
	ArchiveSuccess int
	ArchiveFailure int
}

// DidWork reports whether the run touched anything at all.
func (s Summary) DidWork() bool {
	return s.TVSuccess+s.TVFailure+s.MovieSuccess+s.MovieFailure+s.ArchiveSuccess+s.ArchiveFailure > 0
}

// Render formats the counters as a table for the CLI.
func (s Summary) Render() string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Kind", "Succeeded", "Failed"})
	t.AppendRows([]table.Row{
		{"TV", s.TVSuccess, s.TVFailure},
		{"Movie", s.MovieSuccess, s.MovieFailure},
		{"Archive", s.ArchiveSuccess, s.ArchiveFailure},
	})
	t.AppendFooter(table.Row{"Total", s.TVSuccess + s.MovieSuccess + s.ArchiveSuccess, s.TVFailure + s.MovieFailure + s.ArchiveFailure})
	return t.Render()
}

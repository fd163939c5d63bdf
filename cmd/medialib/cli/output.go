package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	models "medialib/internal/domain/models/media"
)

// render prints v as indented JSON with --json, otherwise calls text.
func (a *app) render(w io.Writer, v any, text func(w io.Writer)) error {
	if a.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	text(tw)
	return tw.Flush()
}

func printStorage(w io.Writer, s *models.Storage) {
	fmt.Fprintf(w, "id\t%s\n", s.ID)
	fmt.Fprintf(w, "name\t%s\n", s.Name)
	fmt.Fprintf(w, "location\t%s\n", s.Location)
	fmt.Fprintf(w, "disk\t%s\n", s.Disk)
	fmt.Fprintf(w, "private\t%t\n", s.Private)
	if s.Capacity != nil {
		fmt.Fprintf(w, "capacity\t%d\n", *s.Capacity)
	}
	fmt.Fprintf(w, "state\t%s\n", s.State())
}

func printFolder(w io.Writer, f *models.Folder) {
	fmt.Fprintf(w, "id\t%s\n", f.ID)
	fmt.Fprintf(w, "path\t%s\n", f.FullPath())
	fmt.Fprintf(w, "private\t%t\n", f.Private)
	fmt.Fprintf(w, "state\t%s\n", f.State())
}

func printFile(w io.Writer, f *models.File) {
	fmt.Fprintf(w, "id\t%s\n", f.ID)
	fmt.Fprintf(w, "name\t%s\n", f.Name)
	fmt.Fprintf(w, "fqfn\t%s\n", f.Fqfn)
	fmt.Fprintf(w, "location\t%s\n", f.Location)
	fmt.Fprintf(w, "filename\t%s\n", f.Filename)
	fmt.Fprintf(w, "mimetype\t%s\n", f.Mimetype)
	fmt.Fprintf(w, "type\t%s\n", f.Type)
	fmt.Fprintf(w, "size\t%d\n", f.Size)
	fmt.Fprintf(w, "private\t%t\n", f.Private)
	fmt.Fprintf(w, "state\t%s\n", f.State())
}

func printItems(w io.Writer, items []models.Item) {
	fmt.Fprintln(w, "TYPE\tID\tNAME\tSIZE")
	for _, item := range items {
		if item.Folder != nil {
			fmt.Fprintf(w, "folder\t%s\t%s/\t-\n", item.Folder.ID, item.Folder.Name)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", item.File.Type, item.File.ID, item.File.Filename, item.File.Size)
	}
}

func printReports(w io.Writer, reports []models.SweepReport) {
	fmt.Fprintln(w, "KIND\tCANDIDATES\tREMOVED\tNOTE")
	for _, r := range reports {
		note := ""
		switch {
		case r.DryRun:
			note = "dry run"
		case r.Skipped:
			note = "skipped"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", r.Kind, len(r.Candidates), r.Removed, note)
	}
}

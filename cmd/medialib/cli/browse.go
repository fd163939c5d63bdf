package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	models "medialib/internal/domain/models/media"
)

func newBrowseCommand(a *app) *cobra.Command {
	var (
		filters  models.BrowseFilters
		private  bool
		public   bool
		paginate bool
		page     int
		perPage  int
	)

	cmd := &cobra.Command{
		Use:   "browse [location]",
		Short: "List the folders and files directly at a location",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}

			var location *string
			if len(args) == 1 {
				location = &args[0]
			}
			switch {
			case private && public:
				return fmt.Errorf("--private and --public are mutually exclusive")
			case private:
				filters.Private = &private
			case public:
				visible := false
				filters.Private = &visible
			}

			var pagination *models.Pagination
			if paginate || cmd.Flags().Changed("page") || cmd.Flags().Changed("per-page") {
				pagination = &models.Pagination{Page: page, PerPage: perPage}
			}

			result, err := services.Browser.Browse(ctx, storage, location, filters, pagination)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), result, func(w io.Writer) {
				printItems(w, result.Data)
				if p := result.Paginate; p != nil {
					fmt.Fprintf(w, "\npage %d of %d (%d items)\n", p.CurrentPage, p.Pages, p.Total)
				}
			})
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&filters.FilesOnly, "files-only", false, "list files only")
	flags.StringVar(&filters.Type, "type", "", "only files of this type group (image, docs, ...)")
	flags.StringVar(&filters.Mime, "mime", "", "only files of this mime subtype (pdf, jpeg, ...)")
	flags.BoolVar(&filters.ModelFiles, "owned", false, "only files that have an owning record")
	flags.BoolVar(&private, "private", false, "only private entries")
	flags.BoolVar(&public, "public", false, "only public entries")
	flags.BoolVar(&paginate, "paginate", false, "paginate with the default page size")
	flags.IntVar(&page, "page", models.DefaultBrowsePage, "page number")
	flags.IntVar(&perPage, "per-page", models.DefaultBrowsePerPage, "items per page")
	return cmd
}

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

func newFileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Manage files",
	}
	cmd.AddCommand(
		newFilePutCommand(a),
		newFileFindCommand(a),
		newFileMoveCommand(a),
		newFileRenameCommand(a),
		newFileURLCommand(a),
		newFileRemoveCommand(a),
	)
	return cmd
}

func newFilePutCommand(a *app) *cobra.Command {
	var (
		req      mediaSvc.CreateFileRequest
		location string
		private  bool
	)

	cmd := &cobra.Command{
		Use:   "put <local-file>",
		Short: "Upload a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			req.Filename = filepath.Base(args[0])
			req.Content = content
			if location != "" {
				req.Location = &location
			}
			if cmd.Flags().Changed("private") {
				req.Private = &private
			}

			file, err := services.Files.CreateFile(ctx, storage, &req)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), file, func(w io.Writer) { printFile(w, file) })
		},
	}

	cmd.Flags().StringVar(&location, "in", "", "folder path, created when missing")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name (defaults to the filename)")
	cmd.Flags().StringVar(&req.Mimetype, "mimetype", "", "mimetype (detected from the content when empty)")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().BoolVar(&private, "private", false, "make the file private")
	return cmd
}

func newFileFindCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <id|fqfn>",
		Short: "Look a file up by id or fully qualified file name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := a.open(ctx)
			if err != nil {
				return err
			}
			file, err := services.Files.FindFile(ctx, args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), file, func(w io.Writer) { printFile(w, file) })
		},
	}
}

func newFileMoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id|fqfn> <destination>",
		Short: "Move a file; \"/\" is the root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}
			file, err := services.Files.FindFile(ctx, args[0])
			if err != nil {
				return err
			}
			moved, err := services.Mover.MoveFile(ctx, storage, file, destination(args[1]))
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), moved, func(w io.Writer) { printFile(w, moved) })
		},
	}
}

func newFileRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id|fqfn> <name>",
		Short: "Change the display name of a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := a.open(ctx)
			if err != nil {
				return err
			}
			file, err := services.Files.FindFile(ctx, args[0])
			if err != nil {
				return err
			}
			renamed, err := services.Files.Rename(ctx, file, args[1])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), renamed, func(w io.Writer) { printFile(w, renamed) })
		},
	}
}

func newFileURLCommand(a *app) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "url <id|fqfn>",
		Short: "Print the file url; private files get a temporary one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}
			file, err := services.Files.FindFile(ctx, args[0])
			if err != nil {
				return err
			}
			url, err := services.Files.URL(ctx, storage, file, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "lifetime of a temporary url (configured default when 0)")
	return cmd
}

func newFileRemoveCommand(a *app) *cobra.Command {
	var purge, restore bool

	cmd := &cobra.Command{
		Use:   "rm <id|fqfn>",
		Short: "Trash, restore or purge a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}

			files := a.catalog.catalog.Files
			var file *models.File
			if utils.IsUUID(args[0]) {
				file, err = files.GetByID(ctx, args[0], storage.ID, mediaRepo.WithTrashed)
			} else {
				file, err = files.GetByFqfn(ctx, args[0], mediaRepo.WithTrashed)
			}
			if err != nil {
				return err
			}

			switch {
			case restore:
				err = services.Files.Restore(ctx, file)
			case purge:
				if err := services.Files.Trash(ctx, file); err != nil {
					return err
				}
				err = services.Files.Purge(ctx, storage, file)
			default:
				err = services.Files.Trash(ctx, file)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "file %s: done\n", file.Fqfn)
			return nil
		},
	}

	cmd.Flags().BoolVar(&restore, "restore", false, "restore a trashed file")
	cmd.Flags().BoolVar(&purge, "purge", false, "delete the file for good")
	return cmd
}

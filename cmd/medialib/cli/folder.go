package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	models "medialib/internal/domain/models/media"
	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
	"medialib/internal/utils"
)

func newFolderCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Manage folders",
	}
	cmd.AddCommand(
		newFolderAssertCommand(a),
		newFolderCreateCommand(a),
		newFolderFindCommand(a),
		newFolderMoveCommand(a),
		newFolderRenameCommand(a),
		newFolderPrivateCommand(a),
		newFolderRemoveCommand(a),
	)
	return cmd
}

func newFolderAssertCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assert <path>",
		Short: "Return the folder at path, creating every missing ancestor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}
			folder, err := services.Resolver.Assert(ctx, storage, args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), folder, func(w io.Writer) { printFolder(w, folder) })
		},
	}
}

func newFolderCreateCommand(a *app) *cobra.Command {
	var (
		req      mediaSvc.CreateFolderRequest
		parentID string
		location string
		private  bool
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create one folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}

			req.Name = args[0]
			if parentID != "" {
				req.ParentID = &parentID
			}
			if location != "" {
				req.Location = &location
			}
			if cmd.Flags().Changed("private") {
				req.Private = &private
			}

			folder, err := services.Folders.CreateFolder(ctx, storage, &req)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), folder, func(w io.Writer) { printFolder(w, folder) })
		},
	}

	cmd.Flags().StringVar(&parentID, "parent", "", "parent folder id")
	cmd.Flags().StringVar(&location, "in", "", "parent path, created when missing")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().BoolVar(&private, "private", false, "make the folder private")
	return cmd
}

func newFolderFindCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "find <id|path>",
		Short: "Look a folder up by id or path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}
			folder, err := services.Folders.FindFolder(ctx, storage, args[0])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), folder, func(w io.Writer) { printFolder(w, folder) })
		},
	}
}

func newFolderMoveCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id|path> <destination>",
		Short: "Move a folder and its subtree; \"/\" is the root",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}
			folder, err := services.Folders.FindFolder(ctx, storage, args[0])
			if err != nil {
				return err
			}
			moved, err := services.Mover.MoveFolder(ctx, storage, folder, destination(args[1]))
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), moved, func(w io.Writer) { printFolder(w, moved) })
		},
	}
}

func newFolderRenameCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id|path> <name>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}
			folder, err := services.Folders.FindFolder(ctx, storage, args[0])
			if err != nil {
				return err
			}
			renamed, err := services.Folders.Rename(ctx, storage, folder, args[1])
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), renamed, func(w io.Writer) { printFolder(w, renamed) })
		},
	}
}

func newFolderPrivateCommand(a *app) *cobra.Command {
	var public bool

	cmd := &cobra.Command{
		Use:   "private <id|path>",
		Short: "Make a folder and its direct children private (or public with --public)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}
			folder, err := services.Folders.FindFolder(ctx, storage, args[0])
			if err != nil {
				return err
			}
			if err := services.Folders.SetPrivate(ctx, storage, folder, !public); err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), folder, func(w io.Writer) { printFolder(w, folder) })
		},
	}

	cmd.Flags().BoolVar(&public, "public", false, "make the folder public instead")
	return cmd
}

func newFolderRemoveCommand(a *app) *cobra.Command {
	var purge, cascade, restore bool

	cmd := &cobra.Command{
		Use:   "rm <id|path>",
		Short: "Trash, restore or purge a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}
			folder, err := a.folderAnyState(ctx, storage, args[0])
			if err != nil {
				return err
			}

			switch {
			case restore:
				err = services.Folders.Restore(ctx, storage, folder)
			case purge:
				if folder.State() == models.StateActive {
					if err := services.Folders.Trash(ctx, storage, folder); err != nil {
						return err
					}
				}
				err = services.Folders.Purge(ctx, storage, folder, cascade)
			default:
				err = services.Folders.Trash(ctx, storage, folder)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "folder %s: done\n", folder.FullPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&restore, "restore", false, "restore a trashed folder")
	cmd.Flags().BoolVar(&purge, "purge", false, "delete the folder for good")
	cmd.Flags().BoolVar(&cascade, "cascade", false, "purge the whole subtree")
	return cmd
}

// folderAnyState finds a folder by id or path, trashed ones included.
func (a *app) folderAnyState(ctx context.Context, storage *models.Storage, ref string) (*models.Folder, error) {
	folders := a.catalog.catalog.Folders
	if utils.IsUUID(ref) {
		return folders.GetByID(ctx, ref, storage.ID, mediaRepo.WithTrashed)
	}
	parent, name := utils.Split(ref)
	return folders.GetByPath(ctx, storage.ID, utils.Location(parent), name, mediaRepo.WithTrashed)
}

// destination parses a move target: a folder id, a path, or "/" for the root.
func destination(ref string) mediaSvc.Destination {
	if utils.IsUUID(ref) {
		return mediaSvc.ToFolderID(ref)
	}
	if utils.Normalize(ref) == nil {
		return mediaSvc.ToRoot()
	}
	return mediaSvc.ToPath(ref)
}

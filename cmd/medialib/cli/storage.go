package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	mediaRepo "medialib/internal/domain/repositories/media"
	mediaSvc "medialib/internal/domain/services/media"
)

func newStorageCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Manage storages",
	}
	cmd.AddCommand(
		newStorageCreateCommand(a),
		newStorageShowCommand(a),
		newStorageListCommand(a),
		newStorageRemoveCommand(a),
	)
	return cmd
}

func newStorageCreateCommand(a *app) *cobra.Command {
	var (
		req      mediaSvc.CreateStorageRequest
		private  bool
		capacity int64
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := a.open(ctx)
			if err != nil {
				return err
			}

			req.Name = args[0]
			if cmd.Flags().Changed("private") {
				req.Private = &private
			}
			if capacity > 0 {
				req.Capacity = &capacity
			}

			storage, err := services.Storages.Create(ctx, &req)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), storage, func(w io.Writer) { printStorage(w, storage) })
		},
	}

	cmd.Flags().StringVar(&req.Location, "location", "", "backend location (defaults to the slug of the name)")
	cmd.Flags().StringVar(&req.Disk, "disk", "", "disk name")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().BoolVar(&private, "private", false, "make the storage private")
	cmd.Flags().Int64Var(&capacity, "capacity", 0, "capacity in bytes (0 for unlimited)")
	return cmd
}

func newStorageShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show [id|preset]",
		Short: "Show a storage and its usage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				a.storageRef = args[0]
			}
			services, storage, err := a.storage(ctx)
			if err != nil {
				return err
			}
			usage, err := services.Storages.Usage(ctx, storage)
			if err != nil {
				return err
			}

			out := struct {
				*mediaSvc.StorageUsage
				Storage any `json:"storage"`
			}{usage, storage}
			return a.render(cmd.OutOrStdout(), out, func(w io.Writer) {
				printStorage(w, storage)
				fmt.Fprintf(w, "folders\t%d\n", usage.Folders)
				fmt.Fprintf(w, "files\t%d\n", usage.Files)
				fmt.Fprintf(w, "used\t%d\n", usage.UsedBytes)
			})
		},
	}
}

func newStorageListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active storages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			services, err := a.open(ctx)
			if err != nil {
				return err
			}
			storages, err := services.Storages.List(ctx)
			if err != nil {
				return err
			}
			return a.render(cmd.OutOrStdout(), storages, func(w io.Writer) {
				fmt.Fprintln(w, "ID\tNAME\tLOCATION\tDISK\tPRIVATE")
				for _, s := range storages {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", s.ID, s.Name, s.Location, s.Disk, s.Private)
				}
			})
		},
	}
}

func newStorageRemoveCommand(a *app) *cobra.Command {
	var purge, force, restore bool

	cmd := &cobra.Command{
		Use:   "rm <id>",
		Short: "Trash, restore or purge a storage",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := a.open(ctx); err != nil {
				return err
			}
			services := a.services
			storage, err := a.catalog.catalog.Storages.GetByID(ctx, args[0], mediaRepo.WithTrashed)
			if err != nil {
				return err
			}

			switch {
			case restore:
				err = services.Storages.Restore(ctx, storage)
			case purge:
				if err := services.Storages.Trash(ctx, storage); err != nil {
					return err
				}
				err = services.Storages.Purge(ctx, storage, force)
			default:
				err = services.Storages.Trash(ctx, storage)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "storage %s: done\n", storage.Name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&restore, "restore", false, "restore a trashed storage")
	cmd.Flags().BoolVar(&purge, "purge", false, "delete the storage for good")
	cmd.Flags().BoolVar(&force, "force", false, "purge a storage that still has content")
	return cmd
}

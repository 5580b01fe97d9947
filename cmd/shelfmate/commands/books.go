package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shelfmate/core/internal/application/services"
	"github.com/shelfmate/core/internal/domain/entities"
	"github.com/shelfmate/core/internal/domain/validation"
	"github.com/shelfmate/core/internal/ports"
)

// NewBooksCommand creates the books command with subcommands
func NewBooksCommand() *cobra.Command {
	booksCmd := &cobra.Command{
		Use:   "books",
		Short: "Manage the catalog",
		Long:  "List, add, show, update and delete books in the configured storage",
	}

	booksCmd.AddCommand(newBooksListCommand())
	booksCmd.AddCommand(newBooksAddCommand())
	booksCmd.AddCommand(newBooksShowCommand())
	booksCmd.AddCommand(newBooksUpdateCommand())
	booksCmd.AddCommand(newBooksDeleteCommand())

	return booksCmd
}

func newBooksListCommand() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List books as a table or grid",
		RunE: func(cmd *cobra.Command, args []string) error {
			genreFlag, _ := cmd.Flags().GetString("genre")
			statusFlag, _ := cmd.Flags().GetString("status")
			search, _ := cmd.Flags().GetString("search")
			page, _ := cmd.Flags().GetInt("page")
			viewFlag, _ := cmd.Flags().GetString("view")

			genre, err := services.ParseGenreFilter(genreFlag)
			if err != nil {
				return err
			}
			status, err := services.ParseStatusFilter(statusFlag)
			if err != nil {
				return err
			}
			mode, err := entities.ParseViewMode(viewFlag)
			if err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("%w: %d", entities.ErrInvalidPage, page)
			}

			c, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			view := services.Render(c.query, c.store.Snapshot(), mode, ports.BookFilter{
				Genre:    genre,
				Status:   status,
				Search:   search,
				Page:     page,
				PageSize: c.query.PageSize(),
			})
			return renderView(cmd.OutOrStdout(), view)
		},
	}

	listCmd.Flags().String("genre", services.AllGenres, "Genre filter")
	listCmd.Flags().String("status", services.AllStatuses, "Status filter (Available, Issued)")
	listCmd.Flags().StringP("search", "q", "", "Match title or author, case-insensitive")
	listCmd.Flags().Int("page", 1, "Page number for the table view")
	listCmd.Flags().String("view", string(entities.ViewTable), "table or grid")
	return listCmd
}

// addBookFlags registers the editable book fields on cmd
func addBookFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Book title")
	cmd.Flags().String("author", "", "Book author")
	cmd.Flags().String("genre", string(entities.GenreFiction), "Genre")
	cmd.Flags().Int("year", time.Now().Year(), "Publication year")
	cmd.Flags().String("status", string(entities.StatusAvailable), "Available or Issued")
	cmd.Flags().String("isbn", "", "ISBN")
	cmd.Flags().String("description", "", "Short description")
}

// applyBookFlags overlays the flags the user set onto req
func applyBookFlags(cmd *cobra.Command, req *ports.BookRequest, onlyChanged bool) {
	flags := cmd.Flags()
	set := func(name string) bool { return !onlyChanged || flags.Changed(name) }

	if set("title") {
		req.Title, _ = flags.GetString("title")
	}
	if set("author") {
		req.Author, _ = flags.GetString("author")
	}
	if set("genre") {
		req.Genre, _ = flags.GetString("genre")
	}
	if set("year") {
		req.Year, _ = flags.GetInt("year")
	}
	if set("status") {
		req.Status, _ = flags.GetString("status")
	}
	if set("isbn") {
		req.ISBN, _ = flags.GetString("isbn")
	}
	if set("description") {
		req.Description, _ = flags.GetString("description")
	}
}

// checkBook runs form validation and enum parsing, printing every field
// error before failing.
func checkBook(cmd *cobra.Command, req ports.BookRequest) (entities.Book, error) {
	v := validation.New(time.Now)
	if err := v.Validate(req.ValidationInput()); err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", fe.Field, fe.Message)
			}
		}
		return entities.Book{}, err
	}
	return req.ToBook()
}

func newBooksAddCommand() *cobra.Command {
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a book",
		RunE: func(cmd *cobra.Command, args []string) error {
			var req ports.BookRequest
			applyBookFlags(cmd, &req, false)

			book, err := checkBook(cmd, req)
			if err != nil {
				return err
			}

			c, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			created, err := c.store.Add(cmd.Context(), book)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), services.ToastAdded)
			renderBook(cmd.OutOrStdout(), created)
			return nil
		},
	}
	addBookFlags(addCmd)
	return addCmd
}

func parseIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid book ID %q", arg)
	}
	return id, nil
}

func newBooksShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			c, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			book, err := c.store.Get(id)
			if err != nil {
				return err
			}
			renderBook(cmd.OutOrStdout(), book)
			return nil
		},
	}
}

func newBooksUpdateCommand() *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}

			c, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			existing, err := c.store.Get(id)
			if err != nil {
				return err
			}

			req := ports.BookRequestFrom(existing)
			applyBookFlags(cmd, &req, true)

			book, err := checkBook(cmd, req)
			if err != nil {
				return err
			}

			updated, err := c.store.Update(cmd.Context(), id, book)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), services.ToastUpdated)
			renderBook(cmd.OutOrStdout(), updated)
			return nil
		},
	}
	addBookFlags(updateCmd)
	return updateCmd
}

func newBooksDeleteCommand() *cobra.Command {
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a book after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			yes, _ := cmd.Flags().GetBool("yes")

			c, err := openCatalog(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Close()

			book, err := c.store.Get(id)
			if err != nil {
				return err
			}

			if !yes {
				fmt.Fprintf(cmd.OutOrStdout(), "Are you sure you want to delete %q? [y/N] ", book.Title)
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			if _, err := c.store.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), services.ToastDeleted)
			return nil
		},
	}
	deleteCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return deleteCmd
}

// NewSnapshotCommand creates the snapshot command with subcommands
func NewSnapshotCommand() *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect or clear the persisted snapshot",
	}

	snapshotCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the raw snapshot JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, storage, _, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer storage.Close()

			data, err := storage.Get(cmd.Context(), cfg.Storage.Key)
			if errors.Is(err, ports.ErrKeyNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "No snapshot stored under %q\n", cfg.Storage.Key)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	})

	snapshotCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the snapshot, emptying the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, storage, _, err := openStorage(cmd.Context())
			if err != nil {
				return err
			}
			defer storage.Close()

			if err := storage.Remove(cmd.Context(), cfg.Storage.Key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshot %q removed\n", cfg.Storage.Key)
			return nil
		},
	})

	return snapshotCmd
}

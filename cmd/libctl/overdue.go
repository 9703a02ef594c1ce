package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"library-backend/internal/domains/borrowing/model"
	borrowingRepo "library-backend/internal/domains/borrowing/repository"
)

func newOverdueCmd() *cobra.Command {
	var (
		asJSON bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "overdue",
		Short: "List borrowed copies past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, db, err := openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			req := model.ListRequest{Overdue: true, Limit: limit, Now: time.Now()}
			req.Normalize()
			items, total, err := borrowingRepo.NewPostgresRepository(db.Pool).List(cmd.Context(), req)
			if err != nil {
				return err
			}

			if asJSON {
				enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(model.ListResponse{Borrowings: items, Total: total, Page: req.Page, Limit: req.Limit})
			}
			return renderOverdue(cmd.OutOrStdout(), items, total, req.Now)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum rows")
	return cmd
}

func renderOverdue(w io.Writer, items []model.BorrowingDetail, total int, now time.Time) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(w, "no overdue borrowings")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BORROWING\tBOOK\tTITLE\tUSER\tDUE\tDAYS LATE")
	for _, b := range items {
		late := int(now.Sub(b.DueDate).Hours() / 24)
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%d\n",
			b.BorrowingID, b.BookID, b.BookTitle, b.UserID, b.DueDate.Format("2006-01-02"), late)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if total > len(items) {
		_, err := fmt.Fprintf(w, "showing %d of %d\n", len(items), total)
		return err
	}
	return nil
}

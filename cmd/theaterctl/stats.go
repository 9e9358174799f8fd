package main

import (
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var statsTheater uint64

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print occupancy and revenue of a theater",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsTheater == 0 {
			return errNoTheater
		}
		a, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.Inventory.Stats(cmd.Context(), statsTheater)
		if err != nil {
			return err
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.SetTitle(fmt.Sprintf("Theater %d", st.TheaterID))
		t.AppendHeader(table.Row{"Section", "Seats", "Available", "Booked"})
		for _, s := range st.Sections {
			t.AppendRow(table.Row{s.SectionName, s.TotalSeats, s.Available, s.Booked})
		}
		t.AppendFooter(table.Row{"TOTAL", st.TotalSeats, st.Available, st.Booked})
		t.Render()
		fmt.Printf("Occupancy: %.2f%%  Revenue: %s\n", st.Occupancy, formatCents(st.RevenueCents))
		return nil
	},
}

func init() {
	statsCmd.Flags().Uint64Var(&statsTheater, "theater", 0, "theater id")
}

func formatCents(c int64) string {
	sign := ""
	if c < 0 {
		sign, c = "-", -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}

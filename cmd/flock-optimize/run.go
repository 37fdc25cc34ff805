package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"flock/internal/modules/optimizer"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		tripFile string
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Optimize one trip and print each car's itinerary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := loadTrip(tripFile)
			if err != nil {
				return err
			}
			env, err := buildEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer env.close()

			res, err := env.engine.Run(cmd.Context(), t)
			if err != nil && !errors.Is(err, optimizer.ErrNoSolution) {
				return err
			}
			if asJSON {
				if werr := writeJSONResult(cmd.OutOrStdout(), res); werr != nil {
					return werr
				}
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return err
		},
	}
	cmd.Flags().StringVar(&tripFile, "trip", "", "trip JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the itineraries as JSON")
	_ = cmd.MarkFlagRequired("trip")
	return cmd
}

func printResult(w io.Writer, res *optimizer.OptimizedTrip) {
	if !res.Found() {
		fmt.Fprintf(w, "no valid assignment for trip %s (%s mode)\n", res.TripID, res.Mode)
		return
	}
	fmt.Fprintf(w, "trip %s (%s mode): %d cars, total %s\n", res.TripID, res.Mode, len(res.Paths), res.TotalTime)
	for _, it := range res.Itineraries() {
		fmt.Fprintf(w, "\n%s (%s)\n", it.DriverName, it.TotalTime)
		for _, s := range it.Stops {
			fmt.Fprintf(w, "  +%-8s %s  [%s]\n", s.LegTime, s.Name, s.Location)
		}
	}
}

func writeJSONResult(w io.Writer, res *optimizer.OptimizedTrip) error {
	out := struct {
		TripID      string                `json:"trip_id"`
		Mode        optimizer.Mode        `json:"mode"`
		Found       bool                  `json:"found"`
		Itineraries []optimizer.Itinerary `json:"itineraries"`
	}{
		TripID:      string(res.TripID),
		Mode:        res.Mode,
		Found:       res.Found(),
		Itineraries: res.Itineraries(),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

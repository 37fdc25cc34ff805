package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flock/internal/modules/trip"
)

func newPrewarmCmd(opts *rootOptions) *cobra.Command {
	var tripFiles []string
	cmd := &cobra.Command{
		Use:   "prewarm",
		Short: "Geocode the riders of one or more trips into the location cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			trips := make([]*trip.Trip, 0, len(tripFiles))
			for _, f := range tripFiles {
				t, err := loadTrip(f)
				if err != nil {
					return err
				}
				trips = append(trips, t)
			}
			env, err := buildEngine(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer env.close()

			if err := env.engine.Prewarm(cmd.Context(), trips...); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "prewarmed %d trips\n", len(trips))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&tripFiles, "trip", nil, "trip JSON file (repeatable)")
	_ = cmd.MarkFlagRequired("trip")
	return cmd
}

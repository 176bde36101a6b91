package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pethealthai/advisor/internal/config"
	"github.com/pethealthai/advisor/internal/geo"
	"github.com/pethealthai/advisor/internal/render"
	"github.com/pethealthai/advisor/internal/service/emergency"
	"github.com/pethealthai/advisor/internal/service/triage"
)

var (
	vetsLat float64
	vetsLon float64
)

var vetsCmd = &cobra.Command{
	Use:   "vets",
	Short: "Find veterinary clinics near your location",
	Long: `vets resolves your position and lists nearby veterinary clinics,
closest first. Pass --lat and --lon to skip position lookup.`,
	RunE: runVets,
}

func init() {
	vetsCmd.Flags().Float64Var(&vetsLat, "lat", 0, "Latitude override")
	vetsCmd.Flags().Float64Var(&vetsLon, "lon", 0, "Longitude override")
	rootCmd.AddCommand(vetsCmd)
}

func runVets(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	lat, lon := cfg.Geo.Latitude, cfg.Geo.Longitude
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
		if !cmd.Flags().Changed("lat") || !cmd.Flags().Changed("lon") {
			return fmt.Errorf("--lat and --lon must be set together")
		}
		lat, lon = &vetsLat, &vetsLon
	}

	locator, err := geo.FromConfig(lat, lon, cfg.Geo.Endpoint, cfg.Geo.Timeout)
	if err != nil {
		return err
	}

	tokens := tokenProvider(cfg.Client)
	client := emergency.NewVetClient(cfg.Client.APIBaseURL, tokens, cfg.Client.RequestTimeout)
	finder := emergency.NewFinder(locator, client)

	out := cmd.OutOrStdout()
	report, err := finder.Run(cmd.Context(), nil)
	if err != nil {
		var locErr *geo.LocateError
		var fault *triage.Fault
		switch {
		case errors.As(err, &locErr):
			fmt.Fprintln(out, locErr.Message)
			return nil
		case errors.As(err, &fault):
			fmt.Fprintln(out, fault.Message)
			return nil
		}
		return err
	}

	fmt.Fprintln(out, "Nearby veterinary clinics:")
	renderer := &render.TextRenderer{}
	return renderer.RenderClinics(out, report)
}

// Command diag is a one-shot prediction report for a TLE file: it parses
// the file, predicts each object's current position and look angles from a
// fixed observer, and prints the upcoming passes. Useful for checking a
// fresh TLE download without starting the service.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rotor/rotorgo/internal/epoch"
	"github.com/rotor/rotorgo/internal/passes"
	"github.com/rotor/rotorgo/internal/propagation"
	"github.com/rotor/rotorgo/internal/sun"
	"github.com/rotor/rotorgo/internal/tle"
	"github.com/rotor/rotorgo/internal/transform"
)

func main() {
	var (
		tleFile = flag.String("tle", "", "path to a TLE file (required)")
		lat     = flag.Float64("lat", 39.7392, "observer latitude, degrees")
		lon     = flag.Float64("lon", -104.9903, "observer longitude, degrees")
		alt     = flag.Float64("alt", 1609, "observer altitude, meters")
		hours   = flag.Float64("hours", 24, "pass prediction horizon, hours")
	)
	flag.Parse()

	if *tleFile == "" {
		fmt.Fprintln(os.Stderr, "usage: diag -tle <file> [-lat ..] [-lon ..] [-alt ..] [-hours ..]")
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	data, err := os.ReadFile(*tleFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR reading TLE file:", err)
		os.Exit(1)
	}

	sats, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "ERROR parsing TLE:", err)
		os.Exit(1)
	}
	fmt.Printf("Loaded %d element sets\n", len(sats))

	obs := transform.NewObserver("observer", *lat, *lon, *alt)
	now := time.Now().UTC()
	at := epoch.FromTime(now)
	fmt.Printf("Observer: %.4f°, %.4f°, %.0f m\nTime: %v\n\n", *lat, *lon, *alt, now.Format(time.RFC3339))

	sunLook := sun.Predict(at).Look(obs)
	fmt.Printf("Sun: az=%.1f° el=%.1f°\n\n", sunLook.AzimuthDeg, sunLook.AltitudeDeg)

	for _, el := range sats {
		st, err := propagation.Predict(el, at)
		if err != nil {
			fmt.Printf("%s (catalog %d): ERROR %v\n", el.Name, el.CatalogNum, err)
			continue
		}
		la := st.Look(obs)
		glat, glon := st.GroundTrack()
		fmt.Printf("%s (catalog %d, epoch %v)\n", el.Name, el.CatalogNum, el.Epoch)
		fmt.Printf("  az=%.1f° el=%.1f° range=%.0f km  sub-point %.2f°,%.2f°  alt=%.0f km  rev=%.0f\n",
			la.AzimuthDeg, la.AltitudeDeg, la.RangeKm, glat, glon, st.AltitudeKm(), st.RevNumber)

		events, err := passes.Predict(context.Background(), passes.Request{
			Observer:     obs,
			Elements:     el,
			Start:        at,
			HorizonHours: *hours,
			MinElevation: 1,
			MaxPasses:    10,
		})
		if err != nil {
			fmt.Printf("  pass prediction ERROR: %v\n", err)
			continue
		}
		fmt.Printf("  %d passes in the next %.0f h\n", len(events), *hours)
		for j, p := range events {
			visibility := "daylight"
			if p.ObserverDark {
				visibility = "dark"
			}
			fmt.Printf("    pass %d: rise=%v maxEl=%.1f° dur=%.0fs %s\n",
				j, p.StartTime.Format(time.RFC3339), p.MaxElevation, p.DurationSeconds, visibility)
		}
		fmt.Println()
	}
}

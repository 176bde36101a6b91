// triagetester exercises a running backend's triage endpoints from the
// command line: send one message (optionally with an image) or run the
// vet lookup, and print the classified outcome.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/pethealthai/advisor/internal/auth"
	"github.com/pethealthai/advisor/internal/config"
	"github.com/pethealthai/advisor/internal/model/chat"
	"github.com/pethealthai/advisor/internal/model/vet"
	"github.com/pethealthai/advisor/internal/service/emergency"
	"github.com/pethealthai/advisor/internal/service/transcript"
	"github.com/pethealthai/advisor/internal/service/triage"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("[WARN] no .env loaded, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	mode := flag.String("mode", "chat", "test mode: chat or vets")
	message := flag.String("message", "My dog has been vomiting since this morning", "symptom description to send")
	imagePath := flag.String("image", "", "optional image file to attach")
	token := flag.String("token", "", "bearer token (default: PETHEALTH_TOKEN or session file)")
	lat := flag.Float64("lat", 47.6062, "latitude for vet lookup")
	lon := flag.Float64("lon", -122.3321, "longitude for vet lookup")
	timeout := flag.Duration("timeout", 45*time.Second, "request timeout")

	flag.Parse()

	tokens := tokenProvider(cfg.Client, *token)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	switch *mode {
	case "chat":
		runChat(ctx, cfg.Client, tokens, *message, *imagePath, *timeout)
	case "vets":
		runVets(ctx, cfg.Client, tokens, *lat, *lon, *timeout)
	default:
		flag.Usage()
		log.Fatal("specify -mode=chat or -mode=vets")
	}
}

func tokenProvider(cfg config.ClientConfig, override string) auth.TokenProvider {
	if override != "" {
		return auth.StaticProvider(override)
	}
	if cfg.Token != "" {
		return auth.StaticProvider(cfg.Token)
	}
	return auth.NewFileSession(cfg.SessionFile)
}

func runChat(ctx context.Context, cfg config.ClientConfig, tokens auth.TokenProvider, message, imagePath string, timeout time.Duration) {
	store := transcript.NewStore()
	composer := triage.NewComposer(store)
	client := triage.NewClient(cfg.APIBaseURL, tokens, timeout)

	if imagePath != "" {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			log.Fatalf("reading image: %v", err)
		}
		mimeType := "image/jpeg"
		if strings.EqualFold(filepath.Ext(imagePath), ".png") {
			mimeType = "image/png"
		}
		err = composer.Attach(chat.PendingAttachment{
			Name:      filepath.Base(imagePath),
			MIMEType:  mimeType,
			SizeBytes: int64(len(data)),
			Data:      data,
		})
		if err != nil {
			log.Fatalf("staging image: %v", err)
		}
	}

	req, err := composer.Compose(message)
	if err != nil {
		log.Fatalf("composing request: %v", err)
	}

	start := time.Now()
	advice, err := client.Submit(ctx, req)
	if err != nil {
		var fault *triage.Fault
		if errors.As(err, &fault) {
			log.Fatalf("submit failed: reason=%s message=%q", fault.Reason, fault.Message)
		}
		log.Fatalf("submit failed: %v", err)
	}

	fmt.Printf("elapsed:   %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Printf("urgency:   %s\n", advice.Urgency)
	fmt.Printf("escalate:  %v\n", advice.Escalate)
	if advice.ImageSummary != "" {
		fmt.Printf("image:     %s\n", advice.ImageSummary)
	}
	fmt.Printf("response:  %s\n", advice.Text)
}

func runVets(ctx context.Context, cfg config.ClientConfig, tokens auth.TokenProvider, lat, lon float64, timeout time.Duration) {
	client := emergency.NewVetClient(cfg.APIBaseURL, tokens, timeout)

	origin := vet.Coordinates{Latitude: lat, Longitude: lon}
	records, err := client.FindNearby(ctx, origin)
	if err != nil {
		var fault *triage.Fault
		if errors.As(err, &fault) {
			log.Fatalf("lookup failed: reason=%s message=%q", fault.Reason, fault.Message)
		}
		log.Fatalf("lookup failed: %v", err)
	}

	fmt.Printf("clinics: %d\n", len(records))
	for _, record := range records {
		if pos, ok := record.Position(); ok {
			fmt.Printf("- %s (%.1f km)\n", record.Name, vet.DistanceKm(origin, pos))
		} else {
			fmt.Printf("- %s\n", record.Name)
		}
	}
}

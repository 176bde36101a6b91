// Package cmd holds the advisor CLI commands.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pethealthai/advisor/internal/auth"
	"github.com/pethealthai/advisor/internal/config"
	"github.com/pethealthai/advisor/internal/geo"
	"github.com/pethealthai/advisor/internal/model/chat"
	"github.com/pethealthai/advisor/internal/render"
	"github.com/pethealthai/advisor/internal/service/emergency"
	"github.com/pethealthai/advisor/internal/service/session"
	"github.com/pethealthai/advisor/internal/service/transcript"
	"github.com/pethealthai/advisor/internal/service/triage"
)

var showTimestamps bool

var rootCmd = &cobra.Command{
	Use:   "advisor",
	Short: "Chat with PetHealth AI about your pet's symptoms",
	Long: `advisor is a terminal client for the PetHealth AI triage service.
Describe your pet's symptoms, optionally attach a photo, and get advisory
guidance. Urgent situations hand off to an emergency workflow that locates
nearby veterinary clinics.`,
	RunE: runChat,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&showTimestamps, "timestamps", false, "Show message timestamps")
}

// tokenProvider picks the session source: an explicit token from the
// environment wins, otherwise the persisted login session is used.
func tokenProvider(cfg config.ClientConfig) auth.TokenProvider {
	if cfg.Token != "" {
		return auth.StaticProvider(cfg.Token)
	}
	return auth.NewFileSession(cfg.SessionFile)
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store := transcript.NewStore()
	composer := triage.NewComposer(store)
	tokens := tokenProvider(cfg.Client)
	client := triage.NewClient(cfg.Client.APIBaseURL, tokens, cfg.Client.RequestTimeout)
	sess := session.New(store, composer, client)

	locator, err := geo.FromConfig(cfg.Geo.Latitude, cfg.Geo.Longitude, cfg.Geo.Endpoint, cfg.Geo.Timeout)
	if err != nil {
		return err
	}
	vetClient := emergency.NewVetClient(cfg.Client.APIBaseURL, tokens, cfg.Client.RequestTimeout)
	finder := emergency.NewFinder(locator, vetClient)

	renderer := &render.TextRenderer{ShowTimestamps: showTimestamps}
	out := cmd.OutOrStdout()

	if err := renderer.RenderTranscript(out, store.Messages()); err != nil {
		return err
	}
	fmt.Fprintln(out, `Type a message, or /image <path>, /remove, /reset, /quit.`)

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := scanner.Text()

		if handled, quit := handleCommand(out, sess, line); quit {
			return nil
		} else if handled {
			continue
		}

		turn, err := sess.Send(cmd.Context(), line)
		if err != nil {
			if errors.Is(err, triage.ErrEmptyInput) || errors.Is(err, session.ErrBusy) {
				fmt.Fprintln(out, err.Error())
				continue
			}
			return err
		}

		switch turn.Kind {
		case session.TurnReply:
			fmt.Fprintln(out, renderer.FormatMessage(turn.Reply))
		case session.TurnFault:
			fmt.Fprintln(out, "!!! "+turn.Fault.Message)
		case session.TurnEscalate:
			if err := runEmergency(cmd.Context(), out, scanner, renderer, finder, turn.Escalation); err != nil {
				return err
			}
			sess.Resume()
			fmt.Fprintln(out, "Back in the chat. Your conversation is unchanged.")
		}
	}
}

// handleCommand interprets slash commands. The second return value signals
// quit.
func handleCommand(out io.Writer, sess *session.Session, line string) (bool, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "/") {
		return false, false
	}

	fields := strings.Fields(trimmed)
	switch fields[0] {
	case "/quit", "/exit":
		return true, true
	case "/reset":
		sess.Reset()
		fmt.Fprintln(out, transcript.Greeting)
	case "/remove":
		sess.Composer().RemoveAttachment()
		fmt.Fprintln(out, "Attachment removed.")
	case "/image":
		if len(fields) < 2 {
			fmt.Fprintln(out, "Usage: /image <path>")
			break
		}
		path := strings.TrimSpace(strings.TrimPrefix(trimmed, "/image"))
		if err := stageImage(sess, path); err != nil {
			fmt.Fprintln(out, err.Error())
			break
		}
		fmt.Fprintf(out, "Attached %s. It will be sent with your next message.\n", filepath.Base(path))
	default:
		fmt.Fprintf(out, "Unknown command %s\n", fields[0])
	}
	return true, false
}

// stageImage loads a local file and stages it on the composer. The MIME
// type comes from the extension; the composer enforces type and size.
func stageImage(sess *session.Session, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading image: %w", err)
	}

	mimeType := ""
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	case ".png":
		mimeType = "image/png"
	}

	return sess.Composer().Attach(chat.PendingAttachment{
		Name:      filepath.Base(path),
		MIMEType:  mimeType,
		SizeBytes: int64(len(data)),
		Data:      data,
	})
}

// runEmergency drives the care-finding workflow and blocks until the user
// chooses to return to the chat.
func runEmergency(ctx context.Context, out io.Writer, scanner *bufio.Scanner, renderer *render.TextRenderer, finder *emergency.Finder, esc *session.Escalation) error {
	advice := esc.AdviceText
	if advice == "" {
		advice = emergency.DefaultUrgentMessage
	}
	if esc.ImageSummary != "" {
		advice += "\n\nImage analysis: " + esc.ImageSummary
	}

	surface := &render.TextMap{Out: out}
	report, err := finder.Run(ctx, surface)
	if err != nil {
		var locErr *geo.LocateError
		var fault *triage.Fault
		switch {
		case errors.As(err, &locErr):
			fmt.Fprintf(out, "=== Emergency ===\n%s\n\n%s\n", advice, locErr.Message)
		case errors.As(err, &fault):
			fmt.Fprintf(out, "=== Emergency ===\n%s\n\n%s\n", advice, fault.Message)
		default:
			return err
		}
	} else if err := renderer.RenderReport(out, advice, report); err != nil {
		return err
	}

	fmt.Fprintln(out, "\nPress Enter to return to the chat.")
	scanner.Scan()
	return scanner.Err()
}

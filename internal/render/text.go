// Package render draws transcript and emergency views as plain text for
// the terminal client.
package render

import (
	"fmt"
	"io"

	"github.com/pethealthai/advisor/internal/model/chat"
	"github.com/pethealthai/advisor/internal/model/vet"
	"github.com/pethealthai/advisor/internal/service/emergency"
)

// TextRenderer writes chat and emergency views as plain text.
type TextRenderer struct {
	ShowTimestamps bool
}

// RenderTranscript writes every transcript entry in order.
func (r *TextRenderer) RenderTranscript(w io.Writer, messages []chat.Message) error {
	for i := range messages {
		if _, err := fmt.Fprintln(w, r.FormatMessage(&messages[i])); err != nil {
			return err
		}
	}
	return nil
}

// FormatMessage renders one entry. Error notices and attachments carry
// their own prefixes so the transcript reads unambiguously.
func (r *TextRenderer) FormatMessage(msg *chat.Message) string {
	label := "You"
	if msg.Sender == chat.SenderAssistant {
		label = "PetHealth AI"
	}

	prefix := ""
	if r.ShowTimestamps {
		prefix = "[" + msg.CreatedAt.Local().Format("15:04") + "] "
	}

	switch {
	case msg.Kind == chat.KindError:
		return fmt.Sprintf("%s!!! %s", prefix, msg.Text)
	case msg.Attachment != "":
		return fmt.Sprintf("%s%s: %s [image: %s]", prefix, label, msg.Text, msg.Attachment)
	case msg.Urgency == chat.UrgencyUrgent:
		return fmt.Sprintf("%s%s (URGENT): %s", prefix, label, msg.Text)
	default:
		return fmt.Sprintf("%s%s: %s", prefix, label, msg.Text)
	}
}

// RenderReport writes the emergency view: the urgent advisory, then the
// clinic list with whatever detail each record carries.
func (r *TextRenderer) RenderReport(w io.Writer, advice string, report *emergency.Report) error {
	if advice == "" {
		advice = emergency.DefaultUrgentMessage
	}
	if _, err := fmt.Fprintf(w, "=== Emergency ===\n%s\n\n", advice); err != nil {
		return err
	}
	return r.RenderClinics(w, report)
}

// RenderClinics writes the clinic list with whatever detail each record
// carries, or the empty-result notice.
func (r *TextRenderer) RenderClinics(w io.Writer, report *emergency.Report) error {
	if report.Notice != "" {
		_, err := fmt.Fprintln(w, report.Notice)
		return err
	}

	for i, record := range report.Vets {
		if _, err := fmt.Fprintf(w, "%d. %s\n", i+1, record.Name); err != nil {
			return err
		}
		if record.Address != "" {
			fmt.Fprintf(w, "   %s\n", record.Address)
		}
		if record.Phone != "" {
			fmt.Fprintf(w, "   %s\n", record.Phone)
		}
		if record.Rating != nil {
			fmt.Fprintf(w, "   Rating: %.1f\n", *record.Rating)
		}
		if record.OpenNow != nil {
			if *record.OpenNow {
				fmt.Fprintln(w, "   Open now")
			} else {
				fmt.Fprintln(w, "   Closed")
			}
		}
		if pos, ok := record.Position(); ok {
			fmt.Fprintf(w, "   %.1f km away\n", vet.DistanceKm(report.Origin, pos))
		}
	}
	return nil
}

// TextMap implements the emergency map surface on a plain writer.
type TextMap struct {
	Out io.Writer
}

func (m *TextMap) Recenter(c vet.Coordinates) {
	fmt.Fprintf(m.Out, "Map centered at (%.4f, %.4f)\n", c.Latitude, c.Longitude)
}

func (m *TextMap) SetMarkers(markers []emergency.Marker) {
	for _, marker := range markers {
		fmt.Fprintf(m.Out, "Marker: %s (%.4f, %.4f)\n", marker.Name, marker.Coords.Latitude, marker.Coords.Longitude)
	}
}

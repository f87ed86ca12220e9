package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/rpggio/tumorboard/internal/domain/consultation"
	"github.com/rpggio/tumorboard/internal/domain/participant"
)

var (
	headerColor = color.New(color.Bold)
	systemColor = color.New(color.FgHiBlack, color.Italic)
	dimColor    = color.New(color.FgHiBlack)
)

// participantColor maps a catalog "#RRGGBB" color to a terminal color.
func participantColor(hex string) *color.Color {
	hex = strings.TrimPrefix(hex, "#")
	if len(hex) != 6 {
		return color.New(color.FgWhite)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.New(color.FgWhite)
	}
	return color.RGB(int(v>>16&0xff), int(v>>8&0xff), int(v&0xff))
}

func statusColor(status consultation.ConsensusStatus) *color.Color {
	switch status {
	case consultation.StatusAgreed, consultation.StatusConfirmed:
		return color.New(color.FgGreen)
	case consultation.StatusProposed:
		return color.New(color.FgCyan)
	case consultation.StatusPending:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgWhite)
	}
}

func printParticipant(w io.Writer, p participant.Participant) {
	badge := participantColor(p.Color).Sprintf("[%s]", p.Initials())
	fmt.Fprintf(w, "  %s %-22s %s\n", badge, p.DisplayName, dimColor.Sprint(p.ID))
	if p.ShortDescription != "" {
		fmt.Fprintf(w, "       %s\n", p.ShortDescription)
	}
}

func printTurn(w io.Writer, catalog *participant.Catalog, turn consultation.Turn) {
	if turn.IsSystem() {
		systemColor.Fprintf(w, "  * %s\n", turn.Content)
		return
	}
	p := catalog.Lookup(turn.ParticipantID)
	name := participantColor(p.Color).Add(color.Bold).Sprint(p.DisplayName)
	fmt.Fprintf(w, "%s: %s\n", name, turn.Content)
}

func printTyping(w io.Writer, catalog *participant.Catalog, participantID string) {
	if participantID == "" || participantID == consultation.SystemParticipantID {
		return
	}
	p := catalog.Lookup(participantID)
	dimColor.Fprintf(w, "  %s is typing...\n", p.DisplayName)
}

func printConsensus(w io.Writer, records []consultation.ConsensusRecord) {
	headerColor.Fprintln(w, "Consensus report")
	for _, record := range records {
		fmt.Fprintf(w, "\n%s  %s\n", headerColor.Sprint(record.Topic), statusColor(record.Status).Sprint(record.Status))
		if len(record.Participants) > 0 {
			badges := make([]string, 0, len(record.Participants))
			for _, p := range record.Participants {
				badges = append(badges, participantColor(p.Color).Sprint(p.Initials))
			}
			fmt.Fprintf(w, "  %s\n", strings.Join(badges, " "))
		}
		if record.DetailText != "" {
			fmt.Fprintf(w, "  %s\n", record.DetailText)
		}
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sootlabs/soot/internal/observer"
	"github.com/sootlabs/soot/internal/reconciler"
)

var observeCmd = &cobra.Command{
	Use:   "observe",
	Short: "Watch live agent activity",
	Long:  "Connect to the server's event stream and print agent slot changes as they happen.",
	RunE:  runObserve,
}

func init() {
	rootCmd.AddCommand(observeCmd)
}

func runObserve(cmd *cobra.Command, args []string) error {
	wsURL := strings.Replace(serverURL, "http", "ws", 1) + "/ws"
	obs := observer.New(wsURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	fmt.Printf("Watching %s (ctrl-c to stop)\n", wsURL)
	err := obs.Run(ctx, func(slot int, state reconciler.SlotState) {
		fmt.Println(formatSlot(slot, state))
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func formatSlot(slot int, state reconciler.SlotState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "agent %d: %s", slot, phaseIcon(state.Phase))
	if state.TaskName != "" {
		fmt.Fprintf(&b, "  %s", state.TaskName)
	}
	if state.PreviewLink != "" {
		fmt.Fprintf(&b, "  preview: %s", state.PreviewLink)
	}
	if state.ValidationLink != "" {
		fmt.Fprintf(&b, "  report: %s", state.ValidationLink)
	}
	return b.String()
}

func phaseIcon(phase reconciler.Phase) string {
	switch phase {
	case reconciler.PhaseThinking:
		return "💭 thinking"
	case reconciler.PhaseWorking:
		return "🔨 working"
	case reconciler.PhaseTesting:
		return "🧪 testing"
	default:
		return string(phase)
	}
}

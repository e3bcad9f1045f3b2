package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ponyo877/swapdesk/server/domain"
	"github.com/spf13/cobra"
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show [session-id]",
	Short: "Shows the current state of a swap session.",
	Long: `Fetches a session from the server and prints both slots:
who joined, what they selected, and whether they approved.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessionID := args[0]
		res, err := httpClient.Get(httpBase() + "/session/" + sessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error fetching session: %v\n", err)
			return
		}
		defer res.Body.Close()

		if res.StatusCode == http.StatusNotFound {
			fmt.Fprintf(os.Stderr, "Session not found: %s\n", sessionID)
			return
		}
		if res.StatusCode != http.StatusOK {
			fmt.Fprintf(os.Stderr, "Server returned %s\n", res.Status)
			return
		}

		var session domain.Session
		if err := json.NewDecoder(res.Body).Decode(&session); err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding session: %v\n", err)
			return
		}

		created := time.UnixMilli(session.Timestamp).Format(time.RFC3339)
		fmt.Printf("session %s (created %s)\n", sessionID, created)
		printSlot("x", session.X)
		printSlot("y", session.Y)
		if session.Ready() {
			fmt.Println("both sides approved: ready to swap")
		}
	},
}

func printSlot(name string, slot domain.Slot) {
	if slot.Address == "" {
		fmt.Printf("  %s: (empty)\n", name)
		return
	}
	fmt.Printf("  %s: %s", name, slot.Address)
	if slot.ContractAddress != "" || slot.TokenID != "" {
		fmt.Printf("  offers %s #%s", slot.ContractAddress, slot.TokenID)
	}
	if slot.Approved {
		fmt.Print("  [approved]")
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(showCmd)
}

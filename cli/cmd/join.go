package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gorilla/websocket"
	"github.com/mattn/go-shellwords"
	"github.com/ponyo877/swapdesk/server/domain"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

// joinCmd represents the join command
var joinCmd = &cobra.Command{
	Use:   "join [session-id]",
	Short: "Joins a swap session in a tview-based interface",
	Long: `Joins a swap session and negotiates interactively. Commands:

  select <contract-address> <token-id>   declare the asset you offer
  approve [<contract-address> <token-id>]  approve (defaults to your last selection)
  swap                                   announce swap completion to the room
  quit                                   leave the session`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sessionID := args[0]
		address := walletAddress
		if flagAddr, _ := cmd.Flags().GetString("as"); flagAddr != "" {
			address = flagAddr
		}
		if address == "" {
			fmt.Fprintln(os.Stderr, "Error: no wallet address set. Use --address, the config file, or --as.")
			os.Exit(1)
		}

		if err := runNegotiationUI(sessionID, address); err != nil {
			fmt.Fprintf(os.Stderr, "Session error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(joinCmd)
	joinCmd.Flags().String("as", "", "Wallet address to join as (overrides the configured one)")
}

func runNegotiationUI(sessionID, address string) error {
	header := http.Header{}
	header.Set("X-Session-Id", sessionID)
	header.Set("X-Address", address)
	conn, _, err := websocket.DefaultDialer.Dial(wsEndpoint(), header)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", wsEndpoint(), err)
	}
	defer conn.Close()

	app := tview.NewApplication()

	textView := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true).
		SetScrollable(true).
		ScrollToEnd()

	inputField := tview.NewInputField().
		SetLabel(address + " ❯❯ ").
		SetFieldWidth(0)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(textView, 0, 1, false).
		AddItem(inputField, 1, 0, true)

	app.SetRoot(flex, true).SetFocus(inputField)

	fmt.Fprintf(textView, "[green]Joined session %s as %s. (Ctrl+C to exit)\n", sessionID, address)

	var lastAsset domain.Asset

	go func() {
		for {
			var ev domain.Envelope
			if err := conn.ReadJSON(&ev); err != nil {
				app.QueueUpdateDraw(func() {
					fmt.Fprintln(textView, "[red]Connection closed by server.")
				})
				return
			}
			app.QueueUpdateDraw(func() {
				printEvent(textView, ev)
				textView.ScrollToEnd()
			})
		}
	}()

	send := func(event string, payload any) {
		ev, err := domain.NewEnvelope(event, payload)
		if err != nil {
			fmt.Fprintf(textView, "[red]Failed to encode %s: %v\n", event, err)
			return
		}
		if err := conn.WriteJSON(ev); err != nil {
			fmt.Fprintf(textView, "[red]Failed to send %s: %v\n", event, err)
		}
	}

	inputField.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		line := strings.TrimSpace(inputField.GetText())
		inputField.SetText("")
		if line == "" {
			return
		}
		words, err := shellwords.Parse(line)
		if err != nil || len(words) == 0 {
			fmt.Fprintln(textView, "[red]Could not parse command.")
			return
		}

		switch words[0] {
		case "select":
			if len(words) != 3 {
				fmt.Fprintln(textView, "[yellow]usage: select <contract-address> <token-id>")
				return
			}
			lastAsset = domain.Asset{ContractAddress: words[1], TokenID: words[2]}
			send(domain.EventSelected, lastAsset)
			fmt.Fprintf(textView, "[white]You selected %s #%s\n", lastAsset.ContractAddress, lastAsset.TokenID)
		case "approve":
			asset := lastAsset
			if len(words) == 3 {
				asset = domain.Asset{ContractAddress: words[1], TokenID: words[2]}
			}
			if asset.IsZero() {
				fmt.Fprintln(textView, "[yellow]nothing selected yet; usage: approve <contract-address> <token-id>")
				return
			}
			send(domain.EventApproved, asset)
			fmt.Fprintf(textView, "[white]You approved %s #%s\n", asset.ContractAddress, asset.TokenID)
		case "swap":
			send(domain.EventSwapped, map[string]any{
				"address":   address,
				"completed": time.Now().UnixMilli(),
			})
		case "quit", "exit":
			app.Stop()
		default:
			fmt.Fprintf(textView, "[yellow]unknown command: %s\n", words[0])
		}
	})

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}
		return event
	})

	return app.Run()
}

func printEvent(textView *tview.TextView, ev domain.Envelope) {
	ts := time.Now().Format("15:04:05")
	switch ev.Event {
	case domain.EventNewParticipant:
		var p domain.ParticipantPayload
		json.Unmarshal(ev.Data, &p)
		fmt.Fprintf(textView, "[white][%s] [blue]%s[white] joined\n", ts, p.Address)
	case domain.EventParticipants:
		var p domain.ParticipantsPayload
		json.Unmarshal(ev.Data, &p)
		fmt.Fprintf(textView, "[white][%s] participants: %s\n", ts, strings.Join(p.Addresses, ", "))
	case domain.EventTargetSelected:
		var a domain.Asset
		json.Unmarshal(ev.Data, &a)
		fmt.Fprintf(textView, "[white][%s] counterpart selected %s #%s\n", ts, a.ContractAddress, a.TokenID)
	case domain.EventTargetApproved:
		var a domain.Asset
		json.Unmarshal(ev.Data, &a)
		fmt.Fprintf(textView, "[white][%s] counterpart approved %s #%s\n", ts, a.ContractAddress, a.TokenID)
	case domain.EventProcessSwap:
		fmt.Fprintf(textView, "[green][%s] both sides approved: proceed with the swap\n", ts)
	case domain.EventSwapped:
		fmt.Fprintf(textView, "[green][%s] swap completed: %s\n", ts, string(ev.Data))
	case domain.EventError:
		var e domain.ErrorPayload
		json.Unmarshal(ev.Data, &e)
		fmt.Fprintf(textView, "[red][%s] error (%s): %s\n", ts, e.Code, e.Message)
	default:
		fmt.Fprintf(textView, "[white][%s] %s: %s\n", ts, ev.Event, string(ev.Data))
	}
}

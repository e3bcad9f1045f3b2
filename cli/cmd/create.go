package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

// createCmd represents the create command
var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Creates a new swap session.",
	Long: `Creates a new swap session on the server and prints its id.
Share the id with your counterpart so both sides can join it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		res, err := httpClient.Post(httpBase()+"/create-session", "application/json", nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating session: %v\n", err)
			return
		}
		defer res.Body.Close()

		if res.StatusCode != http.StatusCreated {
			fmt.Fprintf(os.Stderr, "Server returned %s\n", res.Status)
			return
		}
		var body struct {
			SessionID string `json:"session_id"`
		}
		if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
			fmt.Fprintf(os.Stderr, "Error decoding response: %v\n", err)
			return
		}
		fmt.Println(body.SessionID)
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}

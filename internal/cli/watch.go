// internal/cli/watch.go
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	wstypes "ebeauty-client/internal/domain/websocket"
	"ebeauty-client/internal/navigation"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stay on the home screen and print realtime events",
	Long: `Stay on the signed-in home screen and print realtime events until
interrupted. Artists see new booking requests, clients see booking status
changes. A forced logout from the server ends the watch.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		graph, screen, err := client.Navigator.Current()
		if err != nil {
			return err
		}
		if graph != navigation.GraphClient && graph != navigation.GraphArtist && graph != navigation.GraphAdmin {
			return fmt.Errorf("sign in first (currently on the %s graph)", graph)
		}

		left := make(chan navigation.Graph, 1)
		client.Navigator.OnGraphChange(func(g navigation.Graph, _ error) {
			select {
			case left <- g:
			default:
			}
		})

		events := []wstypes.EventType{wstypes.EventTypeNotification}
		switch graph {
		case navigation.GraphArtist:
			events = append(events, wstypes.EventTypeNewBookingRequest)
		case navigation.GraphClient:
			events = append(events, wstypes.EventTypeBookingStatus)
		}
		for _, event := range events {
			if err := client.Navigator.SubscribeOnScreen(screen, event, printEvent(out)); err != nil {
				return err
			}
		}

		fmt.Fprintf(out, "Watching %s on %s, Ctrl+C to stop\n", events, screen)
		select {
		case <-cmd.Context().Done():
			return nil
		case g := <-left:
			fmt.Fprintf(out, "Session ended, now on the %s graph\n", g)
			return nil
		}
	},
}

func printEvent(out io.Writer) func(*wstypes.WSMessage) {
	return func(msg *wstypes.WSMessage) {
		data, _ := json.Marshal(msg.Data)
		fmt.Fprintf(out, "[%s] %s %s\n", msg.Timestamp.Format("15:04:05"), msg.Type, data)
	}
}

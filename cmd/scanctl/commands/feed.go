package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

var frameExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// listFrames returns the image files directly inside dir in name order.
func listFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var frames []string
	for _, e := range entries {
		if e.IsDir() || !frameExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		frames = append(frames, filepath.Join(dir, e.Name()))
	}
	sort.Strings(frames)

	if len(frames) == 0 {
		return nil, fmt.Errorf("no .jpg, .jpeg or .png files in %s", dir)
	}
	return frames, nil
}

func dial(ctx context.Context, path string) (*websocket.Conn, error) {
	target, err := api.websocketURL(path)
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: api.timeout}
	conn, resp, err := dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, err
	}
	return conn, nil
}

func feedCmd() *cobra.Command {
	var (
		interval time.Duration
		repeat   bool
	)

	cmd := &cobra.Command{
		Use:   "feed <session-id> <dir>",
		Short: "Stream a directory of images to a session's frame socket",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api.requireToken(); err != nil {
				return err
			}

			frames, err := listFrames(args[1])
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			conn, err := dial(ctx, "/checkout/sessions/"+args[0]+"/frames")
			if err != nil {
				return err
			}
			defer conn.Close()

			// The server answers only with errors; print them as they come.
			readDone := make(chan struct{})
			go func() {
				defer close(readDone)
				for {
					_, msg, err := conn.ReadMessage()
					if err != nil {
						return
					}
					fmt.Fprintf(cmd.ErrOrStderr(), "server: %s\n", msg)
				}
			}()

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			sent := 0
			for {
				for _, path := range frames {
					data, err := os.ReadFile(path)
					if err != nil {
						return err
					}
					if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
						return fmt.Errorf("failed to send %s: %w", filepath.Base(path), err)
					}
					sent++
					fmt.Fprintf(cmd.OutOrStdout(), "sent %s (%d bytes)\n", filepath.Base(path), len(data))

					select {
					case <-ctx.Done():
						return closeSocket(conn, readDone, sent, cmd.OutOrStdout())
					case <-readDone:
						return fmt.Errorf("server closed the frame socket after %d frames", sent)
					case <-ticker.C:
					}
				}
				if !repeat {
					return closeSocket(conn, readDone, sent, cmd.OutOrStdout())
				}
			}
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "delay between frames")
	cmd.Flags().BoolVar(&repeat, "loop", false, "replay the directory until interrupted")
	return cmd
}

func closeSocket(conn *websocket.Conn, readDone <-chan struct{}, sent int, w io.Writer) error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))

	select {
	case <-readDone:
	case <-time.After(2 * time.Second):
	}

	fmt.Fprintf(w, "done, %d frames sent\n", sent)
	return nil
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Print a session's events as they happen",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api.requireToken(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			conn, err := dial(ctx, "/checkout/sessions/"+args[0]+"/events")
			if err != nil {
				return err
			}
			defer conn.Close()

			go func() {
				<-ctx.Done()
				conn.Close()
			}()

			for {
				var event map[string]interface{}
				if err := conn.ReadJSON(&event); err != nil {
					if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						return nil
					}
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), event); err != nil {
					return err
				}
			}
		},
	}
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/meetnote/client"
	"github.com/meetnote/client/internal/config"
)

var (
	apiURL    string
	healthURL string
	debug     bool

	cfg *config.Config
)

const commandTimeout = 60 * time.Second

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "meetnote",
		Short:         "Upload meeting files, browse meeting history and chat about meetings",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load()
			if err != nil {
				return err
			}
			if apiURL != "" {
				c.APIBaseURL = apiURL
			}
			if healthURL != "" {
				c.HealthURL = healthURL
			}
			if debug {
				c.Debug = true
				c.LogLevel = "debug"
			}
			c.Init()
			cfg = c
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Versioned API root (default from MEETNOTE_API_BASE_URL)")
	rootCmd.PersistentFlags().StringVar(&healthURL, "health-url", "", "Health endpoint (default from MEETNOTE_HEALTH_URL)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newNewCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newMeetingsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

func newClient() (*client.Client, error) {
	return client.New(cfg.APIBaseURL, client.WithConfig(cfg))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ----------------------------- new ------------------------------

func newNewCmd() *cobra.Command {
	var title string
	var questions []string
	var metadata map[string]string

	cmd := &cobra.Command{
		Use:   "new <file>",
		Short: "Upload a transcript or recording, create its meeting, then ask about it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := client.OpenFile(args[0])
			if err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			up := c.NewUploader()
			defer up.Close()

			log.Debug().
				Str("file", f.Name).
				Str("content_type", f.ContentType).
				Int64("size", f.Size).
				Msg("uploading file")

			start := time.Now()
			rec, err := up.UploadFile(ctx, f, metadata)
			if err != nil {
				log.Error().Err(err).Str("file", f.Name).Dur("elapsed", time.Since(start)).Msg("upload failed")
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "File uploaded: %s (%s, %s)\n", rec.ID, rec.Kind, client.FormatFileSize(rec.FileSize))

			m, err := c.CreateMeetingFromFile(ctx, rec.ID, client.Meeting{Title: title})
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Meeting created: %s - %s\n", m.ID, m.Title)

			if len(questions) == 0 {
				return nil
			}
			chat := c.NewMeetingChat(m.ID)
			defer chat.Close()
			for _, q := range questions {
				reply, err := chat.AskAboutMeeting(ctx, q)
				if err != nil {
					return err
				}
				printExchange(out, q, reply)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Meeting title (optional)")
	cmd.Flags().StringArrayVar(&questions, "ask", nil, "Question to ask about the new meeting (repeatable)")
	cmd.Flags().StringToStringVar(&metadata, "meta", nil, "Upload metadata as key=value, e.g. speakers=3")

	return cmd
}

// ----------------------------- history ------------------------------

func newHistoryCmd() *cobra.Command {
	var sortBy string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List meetings by time or by participant count",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			ms := c.NewMeetings()
			list, err := ms.FetchMeetings(ctx)
			if err != nil {
				return err
			}
			order := client.ParseSortOrder(sortBy)
			sorted := client.SortMeetings(list, order)

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, sorted)
			}

			now := time.Now()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DATE\tTIME\tTITLE\tPARTICIPANTS\tSTATUS")
			for _, m := range sorted {
				e := client.NewHistoryEntry(m, now)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", e.Date, e.Time, e.Title, len(e.Participants), e.Status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if order == client.SortByParticipant {
				fmt.Fprintln(out)
				tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "PARTICIPANT\tMEETINGS\tACTION ITEMS")
				for _, s := range client.ParticipantStats(sorted) {
					fmt.Fprintf(tw, "%s\t%d\t%d\n", s.Name, s.MeetingCount, s.ActionItemCount)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
			}
			fmt.Fprintf(out, "Total: %d\n", len(sorted))
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", string(client.SortByTime), "Sort order: time or participant")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print meetings as JSON")

	return cmd
}

// ----------------------------- chat ------------------------------

func newChatCmd() *cobra.Command {
	var meetingID string

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the assistant; reads one message per line from stdin when no message is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			var ask func(context.Context, string) (*client.Message, error)
			if meetingID != "" {
				mc := c.NewMeetingChat(meetingID)
				defer mc.Close()
				if _, err := mc.CreateMeetingSession(ctx); err != nil {
					return err
				}
				ask = mc.AskAboutMeeting
			} else {
				ch := c.NewChat()
				defer ch.Close()
				if _, err := ch.CreateSession(ctx, client.SessionOptions{}); err != nil {
					return err
				}
				ask = ch.SendMessage
			}

			out := cmd.OutOrStdout()
			if len(args) > 0 {
				q := strings.Join(args, " ")
				reply, err := ask(ctx, q)
				if err != nil {
					return err
				}
				printExchange(out, q, reply)
				return nil
			}

			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				q := strings.TrimSpace(sc.Text())
				if q == "" {
					continue
				}
				reply, err := ask(ctx, q)
				if err != nil {
					return err
				}
				printExchange(out, q, reply)
			}
			return sc.Err()
		},
	}

	cmd.Flags().StringVar(&meetingID, "meeting-id", "", "Scope the conversation to a meeting")

	return cmd
}

func printExchange(w io.Writer, question string, reply *client.Message) {
	fmt.Fprintf(w, "Q: %s\n", question)
	if reply == nil {
		fmt.Fprintln(w, "A: (no reply yet)")
		return
	}
	fmt.Fprintf(w, "A: %s\n", reply.Content)
}

// ----------------------------- meetings ------------------------------

func newMeetingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "Inspect and manage meetings",
	}
	cmd.AddCommand(newMeetingsListCmd())
	cmd.AddCommand(newMeetingsShowCmd())
	cmd.AddCommand(newMeetingsDeleteCmd())
	return cmd
}

func newMeetingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			list, err := c.NewMeetings().FetchMeetings(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range list {
				fmt.Fprintf(out, "%s\t%s\n", m.ID, m.Title)
			}
			fmt.Fprintf(out, "Total: %d\n", len(list))
			return nil
		},
	}
}

func newMeetingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <meeting-id>",
		Short: "Print a meeting and its summary as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			d := c.NewMeetingDetail(args[0])
			if _, err := d.FetchMeeting(ctx); err != nil {
				return errors.New(d.Err())
			}
			if _, err := d.FetchSummary(ctx); err != nil {
				log.Warn().Err(err).Str("meeting_id", args[0]).Msg("summary unavailable")
			}
			snap := d.Snapshot()
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"meeting": snap.Meeting,
				"summary": snap.Summary,
			})
		},
	}
}

func newMeetingsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <meeting-id>",
		Short: "Delete a meeting on the backend",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			ms := c.NewMeetings()
			if err := ms.RemoveMeeting(ctx, args[0]); err != nil {
				return fmt.Errorf("delete %s: %s", args[0], ms.Err())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Meeting deleted: %s\n", args[0])
			return nil
		},
	}
}

// ----------------------------- health ------------------------------

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check whether the backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			h, err := c.CheckHealth(ctx)
			if err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), "unavailable (offline mode)")
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", h.Status, h.Version)
			return nil
		},
	}
}

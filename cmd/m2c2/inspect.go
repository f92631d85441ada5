package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/cobra"

	"github.com/m2c2kit/m2c2"
	"github.com/m2c2kit/m2c2/eventlog"
)

func newInspectCmd() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "inspect <session-id>",
		Short: "Summarize a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := eventlog.Open(cmd.Context(), cfg.EventLog)
			if err != nil {
				return err
			}
			defer log.Close()
			events, err := log.Load(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("load session %s: %w", args[0], err)
			}
			if raw {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(events)
			}
			summarize(events).print(cmd.OutOrStdout())
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "json", false, "print the raw events")
	return cmd
}

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := eventlog.Open(cmd.Context(), cfg.EventLog)
			if err != nil {
				return err
			}
			defer log.Close()
			ids, err := log.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

// sessionSummary describes a recorded session.
type sessionSummary struct {
	Events        int
	FirstSequence int64
	LastSequence  int64
	Started       string
	// Duration is the milliseconds between the first and last events.
	Duration float64
	ByType   map[m2c2.EventType]int
	Nodes    map[m2c2.NodeType]int
	// Scenes lists presented scenes by name, or UUID when unnamed.
	Scenes []string
	Taps   int
}

func summarize(events []m2c2.Event) sessionSummary {
	s := sessionSummary{
		Events: len(events),
		ByType: make(map[m2c2.EventType]int),
		Nodes:  make(map[m2c2.NodeType]int),
	}
	if len(events) == 0 {
		return s
	}
	first, last := events[0], events[len(events)-1]
	s.FirstSequence, s.LastSequence = first.Sequence, last.Sequence
	s.Started = first.ISO8601Timestamp
	s.Duration = last.Timestamp - first.Timestamp

	names := make(map[string]string)
	for _, e := range events {
		s.ByType[e.Type]++
		switch e.Type {
		case m2c2.EventNodeNew:
			s.Nodes[e.NodeType]++
			if opts, ok := e.NodeOptions.(map[string]any); ok {
				if name, ok := opts["name"].(string); ok && name != "" {
					names[e.UUID] = name
				}
			}
		case m2c2.EventScenePresent:
			scene := e.UUID
			if name, ok := names[scene]; ok {
				scene = name
			}
			s.Scenes = append(s.Scenes, scene)
		case m2c2.EventDomPointerDown:
			s.Taps++
		}
	}
	return s
}

func (s sessionSummary) print(w io.Writer) {
	fmt.Fprintf(w, "events:    %d (sequence %d-%d)\n", s.Events, s.FirstSequence, s.LastSequence)
	if s.Started != "" {
		fmt.Fprintf(w, "started:   %s\n", s.Started)
	}
	fmt.Fprintf(w, "duration:  %.0f ms\n", s.Duration)
	fmt.Fprintf(w, "taps:      %d\n", s.Taps)
	fmt.Fprintf(w, "scenes:    %v\n", s.Scenes)
	fmt.Fprintln(w, "by type:")
	for _, t := range slices.Sorted(maps.Keys(s.ByType)) {
		fmt.Fprintf(w, "  %-22s %d\n", t, s.ByType[t])
	}
	fmt.Fprintln(w, "nodes:")
	for _, t := range slices.Sorted(maps.Keys(s.Nodes)) {
		fmt.Fprintf(w, "  %-22s %d\n", t, s.Nodes[t])
	}
}

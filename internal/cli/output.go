package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/mugaber/challenge-experiment-module/internal/models"
	"github.com/mugaber/challenge-experiment-module/internal/store"
)

// Format selects command output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func parseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("invalid format %q (want text, json or yaml)", value)
	}
}

// eventRecord is the printable form of an event; the payload is decoded so
// YAML output stays readable.
type eventRecord struct {
	ID        string                `json:"id,omitempty" yaml:"id,omitempty"`
	Timestamp time.Time             `json:"timestamp" yaml:"timestamp"`
	Revision  uint64                `json:"revision" yaml:"revision"`
	Type      models.EventType      `json:"type" yaml:"type"`
	EntityID  string                `json:"experiment_id" yaml:"experiment_id"`
	Payload   models.CommandPayload `json:"payload" yaml:"payload"`

	// RawPayload holds the stored payload when it does not decode.
	RawPayload string `json:"raw_payload,omitempty" yaml:"raw_payload,omitempty"`
}

func toRecords(logger zerolog.Logger, events []*models.Event) []eventRecord {
	out := make([]eventRecord, 0, len(events))
	for _, e := range events {
		rec := eventRecord{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Revision:  e.Revision,
			Type:      e.Type,
			EntityID:  e.EntityID,
		}
		if len(e.Payload) > 0 {
			if err := json.Unmarshal(e.Payload, &rec.Payload); err != nil {
				logger.Debug().Err(err).Str("event_id", e.ID).Msg("undecodable event payload")
				rec.Payload = models.CommandPayload{}
				rec.RawPayload = string(e.Payload)
			}
		}
		out = append(out, rec)
	}
	return out
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func writeStructured(out io.Writer, format Format, v any) error {
	if format == FormatYAML {
		return writeYAML(out, v)
	}
	return writeJSON(out, v)
}

func writeState(out io.Writer, format Format, state store.State) error {
	if format != FormatText {
		return writeStructured(out, format, state)
	}

	rows := make([][]string, 0, len(state.Experiments))
	for _, exp := range state.Experiments {
		if len(exp.Iterations) == 0 {
			rows = append(rows, []string{strconv.Itoa(exp.ID), string(exp.Status), "-", "", "", ""})
			continue
		}
		for _, it := range exp.Iterations {
			rows = append(rows, []string{
				strconv.Itoa(exp.ID),
				string(exp.Status),
				fmt.Sprintf("EM-%d", it.ID),
				it.Title,
				string(it.State),
				string(it.Length),
			})
		}
	}
	if err := writeTable(out, []string{"EXPERIMENT", "STATUS", "ITERATION", "TITLE", "STATE", "LENGTH"}, rows); err != nil {
		return err
	}

	active := "none"
	if state.Active != nil {
		active = state.Active.String()
	}
	_, err := fmt.Fprintf(out, "\nActive iteration: %s\n", active)
	return err
}

func writeEvents(out io.Writer, format Format, logger zerolog.Logger, events []*models.Event) error {
	records := toRecords(logger, events)
	if format != FormatText {
		return writeStructured(out, format, records)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.FormatUint(r.Revision, 10),
			r.Timestamp.Format(time.RFC3339),
			string(r.Type),
			r.EntityID,
			commandColumn(r),
			string(r.Payload.Status),
		})
	}
	return writeTable(out, []string{"REV", "TIME", "TYPE", "EXPERIMENT", "COMMAND", "STATUS"}, rows)
}

func commandColumn(r eventRecord) string {
	if r.RawPayload != "" {
		return r.RawPayload
	}
	return r.Payload.Command
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

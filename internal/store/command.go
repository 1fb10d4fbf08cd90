package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mugaber/challenge-experiment-module/internal/models"
)

// CommandKind names a store command.
type CommandKind string

const (
	CommandAdd     CommandKind = "add"
	CommandResolve CommandKind = "resolve"
	CommandLength  CommandKind = "length"
	CommandRemove  CommandKind = "remove"
	CommandLock    CommandKind = "lock"
	CommandReset   CommandKind = "reset"
)

// Command is a store command as a value. Only the fields relevant to Kind are set.
type Command struct {
	Kind         CommandKind            `json:"kind"`
	ExperimentID int                    `json:"experiment_id,omitempty"`
	IterationID  int                    `json:"iteration_id,omitempty"`
	Operation    Operation              `json:"operation,omitempty"`
	Length       models.IterationLength `json:"length,omitempty"`
}

// String renders the command in the syntax accepted by ParseCommand.
func (c Command) String() string {
	switch c.Kind {
	case CommandAdd, CommandLock, CommandReset:
		return fmt.Sprintf("%s:%d", c.Kind, c.ExperimentID)
	case CommandResolve:
		return string(c.Operation)
	case CommandLength:
		return fmt.Sprintf("%s:%d:%d:%s", c.Kind, c.ExperimentID, c.IterationID, c.Length)
	case CommandRemove:
		return fmt.Sprintf("%s:%d:%d", c.Kind, c.ExperimentID, c.IterationID)
	default:
		return string(c.Kind)
	}
}

// ParseError reports a command string that could not be parsed.
type ParseError struct {
	Input  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse command %q: %s", e.Input, e.Reason)
}

// ParseCommand parses one command:
//
//	add:<exp>  done  cancel  length:<exp>:<it>:<short|medium|long>
//	remove:<exp>:<it>  lock:<exp>  reset:<exp>
func ParseCommand(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	parts := strings.Split(raw, ":")
	fail := func(reason string) (Command, error) {
		return Command{}, &ParseError{Input: input, Reason: reason}
	}

	kind := strings.ToLower(parts[0])
	args := parts[1:]
	want := map[string]int{
		"add": 1, "lock": 1, "reset": 1,
		"remove": 2, "length": 3,
		"done": 0, "cancel": 0,
	}
	n, ok := want[kind]
	if !ok {
		return fail("unknown command")
	}
	if len(args) != n {
		return fail(fmt.Sprintf("expected %d argument(s), got %d", n, len(args)))
	}

	ids := make([]int, 0, 2)
	for i := 0; i < n && i < 2; i++ {
		v, err := strconv.Atoi(strings.TrimSpace(args[i]))
		if err != nil || v <= 0 {
			return fail(fmt.Sprintf("invalid id %q", args[i]))
		}
		ids = append(ids, v)
	}

	switch kind {
	case "done":
		return Command{Kind: CommandResolve, Operation: OperationDone}, nil
	case "cancel":
		return Command{Kind: CommandResolve, Operation: OperationCancel}, nil
	case "add":
		return Command{Kind: CommandAdd, ExperimentID: ids[0]}, nil
	case "lock":
		return Command{Kind: CommandLock, ExperimentID: ids[0]}, nil
	case "reset":
		return Command{Kind: CommandReset, ExperimentID: ids[0]}, nil
	case "remove":
		return Command{Kind: CommandRemove, ExperimentID: ids[0], IterationID: ids[1]}, nil
	default:
		length, err := models.ParseIterationLength(args[2])
		if err != nil {
			return fail(err.Error())
		}
		return Command{Kind: CommandLength, ExperimentID: ids[0], IterationID: ids[1], Length: length}, nil
	}
}

// ParseCommands parses each input in order and stops at the first error.
func ParseCommands(inputs []string) ([]Command, error) {
	out := make([]Command, 0, len(inputs))
	for _, in := range inputs {
		cmd, err := ParseCommand(in)
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

// apply runs cmd as a pure transition.
func apply(s State, cmd Command, finalTitle string) State {
	switch cmd.Kind {
	case CommandAdd:
		return AddIteration(s, cmd.ExperimentID)
	case CommandResolve:
		return ResolveIteration(s, cmd.Operation, finalTitle)
	case CommandLength:
		return UpdateIterationLength(s, cmd.ExperimentID, cmd.IterationID, cmd.Length)
	case CommandRemove:
		return RemoveIteration(s, cmd.ExperimentID, cmd.IterationID)
	case CommandLock:
		return ToggleLock(s, cmd.ExperimentID)
	case CommandReset:
		return ResetExperiment(s, cmd.ExperimentID)
	default:
		return s
	}
}

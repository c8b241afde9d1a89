// Package trace parses line-oriented simulation scripts and drives a
// machine through them.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jins0704/OS-Simulator-VirtualMemory/mm"
)

// Op identifies one trace command verb.
type Op uint8

const (
	// OpAlloc maps a page with an access intent.
	OpAlloc Op = iota

	// OpFree unmaps a page.
	OpFree

	// OpRead accesses a page with read intent through the translator.
	OpRead

	// OpWrite accesses a page with write intent through the translator.
	OpWrite

	// OpSwitch switches to a PID, forking when it is unknown.
	OpSwitch

	// OpShow dumps the machine state to the runner's writer.
	OpShow
)

// String returns the canonical verb for op.
func (op Op) String() string {
	switch op {
	case OpAlloc:
		return "alloc"
	case OpFree:
		return "free"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpSwitch:
		return "switch"
	case OpShow:
		return "show"
	default:
		return "unknown"
	}
}

// Command is one parsed trace line. Page carries the operand of the page
// commands, PID the operand of switch, Access the intent of alloc.
type Command struct {
	Op     Op
	Line   int
	Page   mm.Page
	PID    mm.PID
	Access mm.Access
}

// Parse reads a script from r, one command per line. Blank lines and
// lines starting with '#' are skipped. Unknown verbs, wrong operand
// counts and non-numeric operands are rejected with the offending line
// number.
func Parse(r io.Reader) ([]Command, error) {
	var commands []Command

	scanner := bufio.NewScanner(r)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cmd, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("trace: line %d: %w", lineNum, err)
		}

		cmd.Line = lineNum
		commands = append(commands, cmd)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: read script: %w", err)
	}

	return commands, nil
}

func parseLine(line string) (Command, error) {
	fields := strings.Fields(line)
	verb, operands := fields[0], fields[1:]

	switch verb {
	case "alloc", "a":
		if len(operands) != 2 {
			return Command{}, fmt.Errorf("%s takes a page and an access intent", verb)
		}

		page, err := parsePage(operands[0])
		if err != nil {
			return Command{}, err
		}

		access, err := parseAccess(operands[1])
		if err != nil {
			return Command{}, err
		}

		return Command{Op: OpAlloc, Page: page, Access: access}, nil

	case "free", "f", "read", "r", "write", "w":
		if len(operands) != 1 {
			return Command{}, fmt.Errorf("%s takes a page", verb)
		}

		page, err := parsePage(operands[0])
		if err != nil {
			return Command{}, err
		}

		op := OpFree
		switch verb[0] {
		case 'r':
			op = OpRead
		case 'w':
			op = OpWrite
		}

		return Command{Op: op, Page: page}, nil

	case "switch", "s":
		if len(operands) != 1 {
			return Command{}, fmt.Errorf("%s takes a pid", verb)
		}

		pid, err := strconv.ParseUint(operands[0], 10, 32)
		if err != nil {
			return Command{}, fmt.Errorf("bad pid %q", operands[0])
		}

		return Command{Op: OpSwitch, PID: mm.PID(pid)}, nil

	case "show", "p":
		if len(operands) != 0 {
			return Command{}, fmt.Errorf("%s takes no operands", verb)
		}

		return Command{Op: OpShow}, nil

	default:
		return Command{}, fmt.Errorf("unknown command %q", verb)
	}
}

func parsePage(operand string) (mm.Page, error) {
	page, err := strconv.ParseUint(operand, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad page %q", operand)
	}

	return mm.Page(page), nil
}

func parseAccess(operand string) (mm.Access, error) {
	switch operand {
	case "r":
		return mm.AccessRead, nil
	case "w":
		return mm.AccessWrite, nil
	case "rw", "wr":
		return mm.AccessRead | mm.AccessWrite, nil
	default:
		return 0, fmt.Errorf("bad access intent %q", operand)
	}
}

// Package trace reads the line-oriented access traces that drive the
// simulator:
//
//	<core> I <addr> [disassembly...]   instruction fetch
//	<core> R <addr>                    data read
//	<core> W <addr>                    data write
//	BEGIN                              region start marker
//	END                                region end marker
//
// Addresses accept any base strconv.ParseUint understands ("0x..." is
// typical). Blank lines and lines starting with '#' are skipped.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind discriminates trace records.
type Kind int

const (
	Fetch Kind = iota
	Read
	Write
	RegionBegin
	RegionEnd
)

// Record is one parsed trace line.
type Record struct {
	Kind  Kind
	Core  int
	Addr  uint64
	Disas string // optional disassembly text on fetch records
}

// Scanner parses trace records from a stream.
type Scanner struct {
	s    *bufio.Scanner
	line int
}

// NewScanner wraps r for record-at-a-time reading.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{s: bufio.NewScanner(r)}
}

// Next returns the next record. It returns io.EOF at end of input and an
// error carrying the line number for malformed lines.
func (sc *Scanner) Next() (Record, error) {
	for sc.s.Scan() {
		sc.line++
		text := strings.TrimSpace(sc.s.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rec, err := parseLine(text)
		if err != nil {
			return Record{}, fmt.Errorf("trace line %d: %w", sc.line, err)
		}
		return rec, nil
	}
	if err := sc.s.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, io.EOF
}

func parseLine(text string) (Record, error) {
	switch text {
	case "BEGIN":
		return Record{Kind: RegionBegin}, nil
	case "END":
		return Record{Kind: RegionEnd}, nil
	}

	fields := strings.Fields(text)
	if len(fields) < 3 {
		return Record{}, fmt.Errorf("want <core> <op> <addr>, got %q", text)
	}

	core, err := strconv.Atoi(fields[0])
	if err != nil || core < 0 {
		return Record{}, fmt.Errorf("bad core index %q", fields[0])
	}
	addr, err := strconv.ParseUint(fields[2], 0, 64)
	if err != nil {
		return Record{}, fmt.Errorf("bad address %q", fields[2])
	}

	rec := Record{Core: core, Addr: addr}
	switch fields[1] {
	case "I":
		rec.Kind = Fetch
		if len(fields) > 3 {
			rec.Disas = strings.Join(fields[3:], " ")
		}
	case "R":
		rec.Kind = Read
	case "W":
		rec.Kind = Write
	default:
		return Record{}, fmt.Errorf("bad op %q (want I, R or W)", fields[1])
	}
	if rec.Kind != Fetch && len(fields) > 3 {
		return Record{}, fmt.Errorf("trailing fields after %q record", fields[1])
	}
	return rec, nil
}

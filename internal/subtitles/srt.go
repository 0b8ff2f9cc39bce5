package subtitles

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const timingArrow = "-->"

// Cue is one timed text block of a subtitle file
type Cue struct {
	Index   int
	Start   string
	End     string
	StartMs int64
	EndMs   int64
	Text    string
}

// ParseError reports a cue block that could not be parsed. The block is
// skipped; parsing continues with the next one.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("subtitle block at line %d: %s", e.Line, e.Reason)
}

// ParseSRT reads SRT cues in file order. Malformed blocks are returned as
// ParseErrors alongside the cues that did parse; err is only set when the
// reader itself fails.
func ParseSRT(r io.Reader) (cues []Cue, skipped []*ParseError, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		block     []string
		blockLine int
		lineNo    int
	)

	flush := func() {
		if len(block) == 0 {
			return
		}
		cue, perr := parseBlock(block, blockLine)
		if perr != nil {
			skipped = append(skipped, perr)
		} else if cue.Text != "" {
			cues = append(cues, cue)
		}
		block = block[:0]
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}

		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if len(block) == 0 {
			blockLine = lineNo
		}
		block = append(block, line)
	}
	if err := sc.Err(); err != nil {
		return cues, skipped, err
	}
	flush()

	return cues, skipped, nil
}

func parseBlock(lines []string, firstLine int) (Cue, *ParseError) {
	var cue Cue

	// Optional numeric counter before the timing line
	if n, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil && len(lines) > 1 {
		cue.Index = n
		lines = lines[1:]
		firstLine++
	}

	timing := lines[0]
	arrow := strings.Index(timing, timingArrow)
	if arrow < 0 {
		return cue, &ParseError{Line: firstLine, Reason: fmt.Sprintf("missing timing line, got %q", timing)}
	}

	cue.Start = strings.TrimSpace(timing[:arrow])
	// Anything after the end timecode (position hints) is ignored
	endFields := strings.Fields(timing[arrow+len(timingArrow):])
	if len(endFields) > 0 {
		cue.End = endFields[0]
	}

	cue.StartMs = ParseTimecode(cue.Start)
	cue.EndMs = ParseTimecode(cue.End)
	if cue.EndMs < cue.StartMs {
		cue.EndMs = cue.StartMs
	}

	cue.Text = strings.TrimSpace(strings.Join(lines[1:], "\n"))
	return cue, nil
}

// maxTimecodeHours keeps the millisecond total well inside int64
const maxTimecodeHours = 99999

// ParseTimecode converts "HH:MM:SS,mmm" (or "." as the fraction separator) to
// milliseconds. Malformed or out-of-range input yields 0; it never fails.
func ParseTimecode(tc string) int64 {
	parts := strings.Split(strings.TrimSpace(tc), ":")
	if len(parts) != 3 {
		return 0
	}

	hours, err := strconv.ParseInt(strings.TrimSpace(parts[0]), 10, 64)
	if err != nil || hours < 0 || hours > maxTimecodeHours {
		return 0
	}
	minutes, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil || minutes < 0 || minutes >= 60 {
		return 0
	}

	secPart := strings.Replace(strings.TrimSpace(parts[2]), ",", ".", 1)
	whole, frac, _ := strings.Cut(secPart, ".")
	seconds, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || seconds < 0 || seconds >= 60 {
		return 0
	}

	var millis int64
	if frac != "" {
		if len(frac) > 3 {
			frac = frac[:3]
		}
		for len(frac) < 3 {
			frac += "0"
		}
		millis, err = strconv.ParseInt(frac, 10, 64)
		if err != nil || millis < 0 {
			return 0
		}
	}

	return ((hours*60+minutes)*60+seconds)*1000 + millis
}

// FormatTimecode renders milliseconds as "HH:MM:SS,mmm"
func FormatTimecode(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// Seconds converts a timecode to fractional seconds
func Seconds(tc string) float64 {
	return float64(ParseTimecode(tc)) / 1000
}

package benchio

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Range is one query filter interval.
type Range struct {
	L, R int32
}

// ReadAttributes reads a "key value" attribute file: one whitespace
// separated int32 pair per line. A first line whose first token is not an
// integer is treated as a header and skipped, as are empty lines.
func ReadAttributes(path string) (keys, values []int32, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("benchio: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	first := true
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if first {
			first = false
			if _, err := strconv.ParseInt(fields[0], 10, 32); err != nil {
				continue // header
			}
		}

		if len(fields) != 2 {
			return nil, nil, fmt.Errorf("benchio: %s:%d: expected 'key value', got %q", path, lineNo, line)
		}
		k, err := strconv.ParseInt(fields[0], 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("benchio: %s:%d: non-integer key %q", path, lineNo, fields[0])
		}
		v, err := strconv.ParseInt(fields[1], 10, 32)
		if err != nil {
			return nil, nil, fmt.Errorf("benchio: %s:%d: non-integer value %q", path, lineNo, fields[1])
		}

		keys = append(keys, int32(k))
		values = append(values, int32(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("benchio: %w", err)
	}

	return keys, values, nil
}

// ReadRanges reads a query-ranges file: one "L-R" pair per line, hyphen
// delimited. A first line that does not parse as two integers is treated
// as a header and skipped.
func ReadRanges(path string) ([]Range, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("benchio: %w", err)
	}
	defer f.Close()

	var out []Range

	scanner := bufio.NewScanner(f)
	lineNo := 0
	first := true
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		r, perr := parseRange(line)
		if first {
			first = false
			if perr != nil {
				continue // header
			}
		} else if perr != nil {
			return nil, fmt.Errorf("benchio: %s:%d: %w", path, lineNo, perr)
		}
		if perr == nil {
			out = append(out, r)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("benchio: %w", err)
	}

	return out, nil
}

// parseRange splits "L-R" on the first hyphen after position 0, so a
// leading minus sign on L survives.
func parseRange(line string) (Range, error) {
	sep := strings.Index(line[1:], "-")
	if sep < 0 {
		return Range{}, fmt.Errorf("expected 'L-R', got %q", line)
	}
	sep++

	l, err := strconv.ParseInt(strings.TrimSpace(line[:sep]), 10, 32)
	if err != nil {
		return Range{}, fmt.Errorf("non-integer range bound %q", line[:sep])
	}
	r, err := strconv.ParseInt(strings.TrimSpace(line[sep+1:]), 10, 32)
	if err != nil {
		return Range{}, fmt.Errorf("non-integer range bound %q", line[sep+1:])
	}

	return Range{L: int32(l), R: int32(r)}, nil
}

// ConvertCSVAttributes converts a CSV attribute file (header line plus one
// integer value per line) into the "key value" format with 0-indexed keys.
// It returns the number of values written.
func ConvertCSVAttributes(inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("benchio: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("benchio: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)

	scanner := bufio.NewScanner(in)
	lineNo := 0
	count := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if lineNo == 1 || line == "" {
			continue // header
		}
		v, err := strconv.ParseInt(line, 10, 32)
		if err != nil {
			return 0, fmt.Errorf("benchio: %s:%d: non-integer value %q", inPath, lineNo, line)
		}
		if _, err := fmt.Fprintf(w, "%d %d\n", count, v); err != nil {
			return 0, fmt.Errorf("benchio: %w", err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("benchio: %w", err)
	}

	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("benchio: %w", err)
	}
	return count, nil
}

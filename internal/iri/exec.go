package iri

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
)

// =============================================================================
// Driver Executable
// =============================================================================

// ExecKernel runs an IRI-90 driver executable once per call.
//
// The driver is started with its working directory set to Dir so that the
// kernel resolves DataPath relative to the install directory. The parent
// process working directory is never changed, so concurrent calls are safe.
type ExecKernel struct {
	Path   string   // driver executable
	Args   []string // extra arguments placed before the request
	Dir    string   // install directory containing DataPath
	Env    []string // nil inherits the parent environment
	Logger *log.Logger
}

// DriverError reports a failed driver process.
type DriverError struct {
	ExitCode int
	Stderr   string
}

func (e *DriverError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("iri90 driver exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("iri90 driver exited with status %d: %s", e.ExitCode, msg)
}

// Run implements Kernel.
func (k *ExecKernel) Run(ctx context.Context, in KernelInput) (RawOutput, error) {
	var req bytes.Buffer
	if err := WriteRequest(&req, in); err != nil {
		return RawOutput{}, err
	}

	cmd := exec.CommandContext(ctx, k.Path, k.Args...)
	cmd.Dir = k.Dir
	cmd.Env = k.Env
	cmd.Stdin = &req
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if k.Logger != nil {
		k.Logger.Printf("iri90: %s in %s (%d heights)", k.Path, k.Dir, len(in.Heights))
	}

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return RawOutput{}, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return RawOutput{}, &DriverError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return RawOutput{}, fmt.Errorf("run iri90 driver: %w", err)
	}

	return ReadOutput(&stdout)
}

// =============================================================================
// Line Protocol
// =============================================================================

// WriteRequest encodes in as the driver's keyword-per-line request.
func WriteRequest(w io.Writer, in KernelInput) error {
	bw := bufio.NewWriter(w)

	jf := make([]string, NumFlags)
	for i, v := range in.JF {
		if v {
			jf[i] = "1"
		} else {
			jf[i] = "0"
		}
	}
	fmt.Fprintf(bw, "JF %s\n", strings.Join(jf, " "))
	fmt.Fprintf(bw, "JMAG %d\n", in.JMag)
	fmt.Fprintf(bw, "ALATI %s\n", formatFloat(in.Lat))
	fmt.Fprintf(bw, "ALONG %s\n", formatFloat(in.Lon))
	fmt.Fprintf(bw, "RZ12 %s\n", formatFloat(in.RZ12))
	fmt.Fprintf(bw, "MMDD %s\n", in.MMDD)
	fmt.Fprintf(bw, "DHOUR %s\n", formatFloat(in.Hour))
	fmt.Fprintf(bw, "DATA %s\n", in.DataPath)
	fmt.Fprintf(bw, "HEIGHTS %d\n", len(in.Heights))
	for _, h := range in.Heights {
		fmt.Fprintln(bw, formatFloat(h))
	}

	return bw.Flush()
}

// ReadRequest decodes a request written by WriteRequest.
func ReadRequest(r io.Reader) (KernelInput, error) {
	var in KernelInput
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		key, vals := fields[0], fields[1:]
		// MMDD and DATA are strings and may be written empty.
		if key != "DATA" && key != "MMDD" && len(vals) == 0 {
			return in, fmt.Errorf("request: %s has no value", key)
		}

		var err error
		switch key {
		case "JF":
			if len(vals) != NumFlags {
				return in, fmt.Errorf("request: JF has %d values, want %d", len(vals), NumFlags)
			}
			for i, v := range vals {
				switch v {
				case "1":
					in.JF[i] = true
				case "0":
					in.JF[i] = false
				default:
					return in, fmt.Errorf("request: JF value %d is %q, want 0 or 1", i+1, v)
				}
			}
		case "JMAG":
			in.JMag, err = strconv.Atoi(vals[0])
		case "ALATI":
			in.Lat, err = strconv.ParseFloat(vals[0], 64)
		case "ALONG":
			in.Lon, err = strconv.ParseFloat(vals[0], 64)
		case "RZ12":
			in.RZ12, err = strconv.ParseFloat(vals[0], 64)
		case "MMDD":
			if len(vals) > 0 {
				in.MMDD = vals[0]
			}
		case "DHOUR":
			in.Hour, err = strconv.ParseFloat(vals[0], 64)
		case "DATA":
			if len(vals) > 0 {
				in.DataPath = vals[0]
			}
		case "HEIGHTS":
			var n int
			if n, err = strconv.Atoi(vals[0]); err != nil {
				break
			}
			in.Heights, err = scanFloats(scanner, n)
		default:
			return in, fmt.Errorf("request: unknown keyword %q", key)
		}
		if err != nil {
			return in, fmt.Errorf("request: %s: %w", key, err)
		}
	}

	return in, scanner.Err()
}

// WriteOutput encodes a kernel result as OUTF/OARR blocks.
func WriteOutput(w io.Writer, out RawOutput) error {
	bw := bufio.NewWriter(w)

	cols := 0
	if len(out.Out) > 0 {
		cols = len(out.Out[0])
	}
	fmt.Fprintf(bw, "OUTF %d %d\n", len(out.Out), cols)
	for _, row := range out.Out {
		fmt.Fprintln(bw, joinFloats(row))
	}
	fmt.Fprintf(bw, "OARR %d\n", len(out.Aux))
	fmt.Fprintln(bw, joinFloats(out.Aux))

	return bw.Flush()
}

// ReadOutput decodes the driver's stdout.
func ReadOutput(r io.Reader) (RawOutput, error) {
	var out RawOutput
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	seenOut, seenAux := false, false
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "OUTF":
			if len(fields) != 3 {
				return out, fmt.Errorf("output: malformed OUTF header %q", scanner.Text())
			}
			rows, err := strconv.Atoi(fields[1])
			if err != nil {
				return out, fmt.Errorf("output: OUTF rows: %w", err)
			}
			cols, err := strconv.Atoi(fields[2])
			if err != nil {
				return out, fmt.Errorf("output: OUTF cols: %w", err)
			}
			out.Out = make([][]float64, rows)
			for i := range out.Out {
				if !scanner.Scan() {
					return out, fmt.Errorf("output: OUTF row %d missing", i)
				}
				row, err := parseFloats(strings.Fields(scanner.Text()))
				if err != nil {
					return out, fmt.Errorf("output: OUTF row %d: %w", i, err)
				}
				if len(row) != cols {
					return out, fmt.Errorf("output: OUTF row %d has %d values, want %d", i, len(row), cols)
				}
				out.Out[i] = row
			}
			seenOut = true
		case "OARR":
			if len(fields) != 2 {
				return out, fmt.Errorf("output: malformed OARR header %q", scanner.Text())
			}
			n, err := strconv.Atoi(fields[1])
			if err != nil {
				return out, fmt.Errorf("output: OARR length: %w", err)
			}
			out.Aux = make([]float64, 0, n)
			for len(out.Aux) < n {
				if !scanner.Scan() {
					return out, fmt.Errorf("output: OARR has %d values, want %d", len(out.Aux), n)
				}
				vals, err := parseFloats(strings.Fields(scanner.Text()))
				if err != nil {
					return out, fmt.Errorf("output: OARR: %w", err)
				}
				out.Aux = append(out.Aux, vals...)
			}
			seenAux = true
		default:
			return out, fmt.Errorf("output: unexpected line %q", scanner.Text())
		}
	}
	if err := scanner.Err(); err != nil {
		return out, err
	}
	if !seenOut || !seenAux {
		return out, errors.New("output: missing OUTF or OARR block")
	}

	return out, nil
}

func scanFloats(scanner *bufio.Scanner, n int) ([]float64, error) {
	vals := make([]float64, 0, n)
	for len(vals) < n {
		if !scanner.Scan() {
			return vals, fmt.Errorf("got %d values, want %d", len(vals), n)
		}
		parsed, err := parseFloats(strings.Fields(scanner.Text()))
		if err != nil {
			return vals, err
		}
		vals = append(vals, parsed...)
	}
	return vals, nil
}

func parseFloats(fields []string) ([]float64, error) {
	vals := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func joinFloats(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = formatFloat(v)
	}
	return strings.Join(parts, " ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

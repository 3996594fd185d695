/**
 * Copyright 2026 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yookoala/realpath"

	"huffpack/huffman"
)

var ErrUsage = errors.New("usage error")

// resolve returns the canonical path of name for log lines and reports.
func resolve(name string) string {
	real, err := realpath.Realpath(name)
	if err != nil {
		return name
	}
	return real
}

func compressedName(config *Config, in string) string {
	return in + config.ArtifactSuffix
}

func decompressedName(config *Config, in string) string {
	out := strings.TrimSuffix(in, config.ArtifactSuffix)
	if out == in || out == "" || strings.HasSuffix(out, string(filepath.Separator)) {
		return in + ".out"
	}
	return out
}

func writeFile(name string, data []byte) error {
	if err := os.WriteFile(name, data, 0666); err != nil {
		return fmt.Errorf("cannot write %q: %w", name, err)
	}
	return nil
}

// CompressFile compresses in into out and returns the recorded run.
func CompressFile(in, out, password string) (*Run, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", in, err)
	}

	artifact, m, err := huffman.Compress(data, password)
	if err != nil {
		return nil, fmt.Errorf("cannot compress %q: %w", in, err)
	}

	if err := writeFile(out, artifact); err != nil {
		return nil, err
	}

	log.Printf(
		"%s: %d -> %d bytes (%.1f%% saved) in %s",
		resolve(in), m.OriginalSize, m.CompressedSize, m.Ratio, m.Elapsed,
	)
	return NewRun(OP_COMPRESS, filepath.Base(in), m), nil
}

func DecompressFile(in, out, password string) error {
	artifact, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", in, err)
	}

	data, err := huffman.Decompress(artifact, password)
	if err != nil {
		return fmt.Errorf("cannot decompress %q: %w", in, err)
	}

	if err := writeFile(out, data); err != nil {
		return err
	}

	log.Printf("%s: recovered %d bytes into %s", resolve(in), len(data), resolve(out))
	return nil
}

// PrintTree shows the code table and tree of a file. Artifacts are
// described by the histogram stored in their header.
func PrintTree(w io.Writer, name string, data []byte) error {
	freqs := huffman.Count(data)
	what := "input"
	if h, err := huffman.Inspect(data); err == nil {
		freqs = h.Freqs
		what = "artifact"
		if h.Encrypted {
			what = "password protected artifact"
		}
	}

	root := huffman.BuildTree(freqs)
	table, err := huffman.Codes(root)
	if err != nil {
		return err
	}
	nbits, _ := table.BitLen(freqs)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s (%s): %d bytes, %d distinct, %d payload bits\n\n", name, what, freqs.Total(), freqs.Symbols(), nbits)
	for i, f := range freqs {
		if f == 0 {
			continue
		}
		fmt.Fprintf(bw, "%#02x %-6q %10d  %s\n", i, byte(i), f, table[i])
	}
	fmt.Fprintln(bw)
	huffman.Print(bw, root)
	return bw.Flush()
}

func newFlagSet(name, args_usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: huffpack %s [flags] %s\n", name, args_usage)
		fs.PrintDefaults()
	}
	return fs
}

func runCompress(config *Config, args []string) error {
	fs := newFlagSet("compress", "file")
	out := fs.String("o", "", "output file (default: input + "+config.ArtifactSuffix+")")
	password := fs.String("password", "", "protect the artifact with a password")
	report := fs.Bool("report", false, "write a markdown run report next to the output")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return ErrUsage
	}

	in := fs.Arg(0)
	if *out == "" {
		*out = compressedName(config, in)
	}

	run, err := CompressFile(in, *out, *password)
	if err != nil {
		return err
	}

	if *report {
		return writeReportFile(*out+".md", run)
	}
	return nil
}

func writeReportFile(name string, run *Run) error {
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("cannot create report: %w", err)
	}
	if err := WriteReport(f, run); err != nil {
		f.Close()
		return fmt.Errorf("cannot write report %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("cannot write report %q: %w", name, err)
	}
	return nil
}

func runDecompress(config *Config, args []string) error {
	fs := newFlagSet("decompress", "file")
	out := fs.String("o", "", "output file (default: input without "+config.ArtifactSuffix+")")
	password := fs.String("password", "", "password the artifact was made with")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return ErrUsage
	}

	in := fs.Arg(0)
	if *out == "" {
		*out = decompressedName(config, in)
	}
	return DecompressFile(in, *out, *password)
}

func runTree(config *Config, args []string) error {
	fs := newFlagSet("tree", "file")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return ErrUsage
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", fs.Arg(0), err)
	}
	return PrintTree(os.Stdout, resolve(fs.Arg(0)), data)
}

func runRemote(config *Config, args []string) error {
	fs := newFlagSet("remote", "compress|decompress file")
	server := fs.String("server", config.ServerURL, "huffpack server URL")
	out := fs.String("o", "", "output file")
	password := fs.String("password", "", "artifact password")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return ErrUsage
	}

	op, in := fs.Arg(0), fs.Arg(1)
	data, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("cannot read %q: %w", in, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := NewClient(*server)
	switch op {
	case OP_COMPRESS:
		artifact, run_id, err := client.Compress(ctx, filepath.Base(in), data, *password)
		if err != nil {
			return err
		}
		if *out == "" {
			*out = compressedName(config, in)
		}
		if err := writeFile(*out, artifact); err != nil {
			return err
		}
		log.Printf("%s: %d -> %d bytes, report at %s/runs/%s/report", resolve(in), len(data), len(artifact), client.BaseURL, run_id)
	case OP_DECOMPRESS:
		raw, err := client.Decompress(ctx, filepath.Base(in), data, *password)
		if err != nil {
			return err
		}
		if *out == "" {
			*out = decompressedName(config, in)
		}
		if err := writeFile(*out, raw); err != nil {
			return err
		}
		log.Printf("%s: recovered %d bytes into %s", resolve(in), len(raw), *out)
	default:
		fs.Usage()
		return ErrUsage
	}
	return nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go

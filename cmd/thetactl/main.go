/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Command thetactl is a thin command-line front end over the theta
// package: build a sketch from newline-delimited items, combine sketches
// with the three set operations, and inspect a serialized sketch.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/cardinalio/thetasketch/theta"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "union":
		err = runUnion(os.Args[2:])
	case "inter":
		err = runInter(os.Args[2:])
	case "anotb":
		err = runANotB(os.Args[2:])
	case "inspect":
		err = runInspect(os.Args[2:])
	case "-h", "-help", "--help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "thetactl: unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "thetactl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage:
  thetactl build   -lg-k 12 -seed 9001 -ordered -out sketch.bin   < items.txt
  thetactl union   -lg-k 12 -out union.bin        a.bin b.bin ...
  thetactl inter   -out inter.bin                 a.bin b.bin
  thetactl anotb   -out diff.bin                  a.bin b.bin
  thetactl inspect -items                         sketch.bin
`)
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	lgK := fs.Uint("lg-k", uint(theta.DefaultLgK), "log2 of nominal entries")
	seed := fs.Uint64("seed", theta.DefaultSeed, "hash seed")
	ordered := fs.Bool("ordered", false, "emit an ordered compact sketch")
	out := fs.String("out", "", "output file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("build: -out is required")
	}

	sketch, err := theta.NewUpdateSketch(
		theta.WithUpdateSketchLgK(uint8(*lgK)),
		theta.WithUpdateSketchSeed(*seed),
	)
	if err != nil {
		return fmt.Errorf("build: %w", err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var inserted, rejected int
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if sketch.UpdateString(line) == theta.InsertedCountIncremented {
			inserted++
		} else {
			rejected++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("build: reading stdin: %w", err)
	}
	fmt.Fprintf(os.Stderr, "build: %d inserted, %d rejected\n", inserted, rejected)

	return writeCompact(sketch.Compact(*ordered), *out)
}

func runUnion(args []string) error {
	fs := flag.NewFlagSet("union", flag.ExitOnError)
	lgK := fs.Uint("lg-k", uint(theta.DefaultLgK), "log2 of nominal entries")
	seed := fs.Uint64("seed", theta.DefaultSeed, "hash seed")
	out := fs.String("out", "", "output file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	inputs := fs.Args()
	if *out == "" || len(inputs) == 0 {
		return fmt.Errorf("union: -out and at least one input file are required")
	}

	union, err := theta.NewUnion(theta.WithUnionLgK(uint8(*lgK)), theta.WithUnionSeed(*seed))
	if err != nil {
		return fmt.Errorf("union: %w", err)
	}
	for _, path := range inputs {
		sketch, err := readSketch(path, *seed)
		if err != nil {
			return fmt.Errorf("union: %w", err)
		}
		if err := union.Update(sketch); err != nil {
			return fmt.Errorf("union: combining %s: %w", path, err)
		}
	}

	result, err := union.Result(true)
	if err != nil {
		return fmt.Errorf("union: %w", err)
	}
	return writeCompact(result, *out)
}

func runInter(args []string) error {
	fs := flag.NewFlagSet("inter", flag.ExitOnError)
	seed := fs.Uint64("seed", theta.DefaultSeed, "hash seed")
	out := fs.String("out", "", "output file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	inputs := fs.Args()
	if *out == "" || len(inputs) < 2 {
		return fmt.Errorf("inter: -out and at least two input files are required")
	}

	inter := theta.NewIntersection(theta.WithIntersectionSeed(*seed))
	for _, path := range inputs {
		sketch, err := readSketch(path, *seed)
		if err != nil {
			return fmt.Errorf("inter: %w", err)
		}
		if err := inter.Update(sketch); err != nil {
			return fmt.Errorf("inter: combining %s: %w", path, err)
		}
	}

	result, err := inter.Result(true)
	if err != nil {
		return fmt.Errorf("inter: %w", err)
	}
	return writeCompact(result, *out)
}

func runANotB(args []string) error {
	fs := flag.NewFlagSet("anotb", flag.ExitOnError)
	seed := fs.Uint64("seed", theta.DefaultSeed, "hash seed")
	out := fs.String("out", "", "output file (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	inputs := fs.Args()
	if *out == "" || len(inputs) != 2 {
		return fmt.Errorf("anotb: -out and exactly two input files (a b) are required")
	}

	a, err := readSketch(inputs[0], *seed)
	if err != nil {
		return fmt.Errorf("anotb: %w", err)
	}
	b, err := readSketch(inputs[1], *seed)
	if err != nil {
		return fmt.Errorf("anotb: %w", err)
	}

	result, err := theta.ANotB(a, b, *seed, true)
	if err != nil {
		return fmt.Errorf("anotb: %w", err)
	}
	return writeCompact(result, *out)
}

func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	seed := fs.Uint64("seed", theta.DefaultSeed, "hash seed")
	showItems := fs.Bool("items", false, "print retained hashes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	inputs := fs.Args()
	if len(inputs) != 1 {
		return fmt.Errorf("inspect: exactly one input file is required")
	}

	sketch, err := readSketch(inputs[0], *seed)
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}
	fmt.Println(sketch.String(*showItems))
	return nil
}

func readSketch(path string, seed uint64) (*theta.CompactSketch, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return theta.Decode(buf, seed)
}

func writeCompact(sketch *theta.CompactSketch, path string) error {
	buf, err := sketch.ToBytes(true)
	if err != nil {
		return fmt.Errorf("serializing: %w", err)
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

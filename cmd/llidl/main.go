// Command llidl validates LLSD documents against LLIDL interface
// descriptions from the command line.
//
// Usage:
//
//	llidl check -schema spec.llidl [-value doc.llsd] [-level match|valid] [-v]
//	llidl suite -schema api.llidl -resource name [-side request|response] [-value doc.llsd] [-level match|valid] [-v]
//
// The document is read from -value, or stdin when omitted, in any LLSD wire
// encoding (sniffed). Exit status is 0 when the document meets the level and
// 1 when it does not; usage and I/O problems exit 2.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	gojson "github.com/goccy/go-json"

	"github.com/llbase/go-llbase/jsonlog"
	"github.com/llbase/go-llbase/llidl"
	"github.com/llbase/go-llbase/llsd"
)

var logger = jsonlog.NewLogger(os.Stderr, &jsonlog.Options{Name: "llidl"})

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	switch os.Args[1] {
	case "check":
		checkCmd(os.Args[2:])
	case "suite":
		suiteCmd(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `llidl CLI

Usage:
  llidl check -schema spec.llidl [-value doc.llsd] [-level match|valid] [-v]
  llidl suite -schema api.llidl -resource name [-side request|response] [-value doc.llsd] [-level match|valid] [-v]

The document comes from -value or stdin, in any LLSD encoding.`)
}

func checkCmd(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	var (
		schema  = fs.String("schema", "", "LLIDL value specification file")
		value   = fs.String("value", "", "LLSD document file (default stdin)")
		level   = fs.String("level", "match", "required level: match or valid")
		verbose = fs.Bool("v", false, "echo the parsed document as JSON")
	)
	_ = fs.Parse(args)
	if *schema == "" {
		fs.Usage()
		os.Exit(2)
	}

	src, err := os.ReadFile(*schema)
	if err != nil {
		fatal("read schema", err)
	}
	spec, err := llidl.ParseValue(string(src))
	if err != nil {
		fatal("parse schema", err)
	}

	doc := loadDocument(*value)
	if *verbose {
		echo(doc)
	}
	verdict(spec.Check(doc, parseLevel(*level)))
}

func suiteCmd(args []string) {
	fs := flag.NewFlagSet("suite", flag.ExitOnError)
	var (
		schema   = fs.String("schema", "", "LLIDL suite file")
		resource = fs.String("resource", "", "resource name to check against")
		side     = fs.String("side", "response", "request or response")
		value    = fs.String("value", "", "LLSD document file (default stdin)")
		level    = fs.String("level", "match", "required level: match or valid")
		verbose  = fs.Bool("v", false, "echo the parsed document as JSON")
	)
	_ = fs.Parse(args)
	if *schema == "" || *resource == "" {
		fs.Usage()
		os.Exit(2)
	}

	src, err := os.ReadFile(*schema)
	if err != nil {
		fatal("read schema", err)
	}
	suite, err := llidl.ParseSuite(string(src))
	if err != nil {
		fatal("parse schema", err)
	}

	doc := loadDocument(*value)
	if *verbose {
		echo(doc)
	}

	lv := parseLevel(*level)
	switch *side {
	case "request":
		verdict(suite.CheckRequest(*resource, doc, lv))
	case "response":
		verdict(suite.CheckResponse(*resource, doc, lv))
	default:
		logger.Error("bad -side value", "side", *side)
		os.Exit(2)
	}
}

func parseLevel(s string) llidl.Result {
	switch s {
	case "match":
		return llidl.Converted
	case "valid":
		return llidl.Mixed
	default:
		logger.Error("bad -level value", "level", s)
		os.Exit(2)
		panic("unreachable")
	}
}

func loadDocument(path string) llsd.Value {
	var data []byte
	var err error
	if path == "" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		fatal("read document", err)
	}
	doc, err := llsd.Parse(data, "")
	if err != nil {
		fatal("parse document", err)
	}
	return doc
}

func echo(doc llsd.Value) {
	out, err := gojson.MarshalIndent(doc.Any(), "", "  ")
	if err != nil {
		logger.Warn("cannot render document", "error", err)
		return
	}
	fmt.Fprintln(os.Stdout, string(out))
}

func verdict(err error) {
	if err == nil {
		os.Exit(0)
	}
	if me, ok := llidl.AsMatchError(err); ok {
		logger.Error("document did not meet the required level", "detail", me.Msg)
		os.Exit(1)
	}
	fatal("check", err)
}

func fatal(msg string, err error) {
	logger.Error(msg, slog.Any("error", err))
	os.Exit(2)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samvad-hq/samvad-http-client/internal/app"
	"github.com/samvad-hq/samvad-http-client/pkg/httpclient"
	"github.com/spf13/pflag"
)

const usageText = `usage: httpc [flags] <get|search|put|post|delete|history> [endpoint]

flags:
`

// parseArgs turns command-line arguments into a runner command.
func parseArgs(args []string, stderr io.Writer) (app.Command, error) {
	fs := pflag.NewFlagSet("httpc", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usageText)
		fs.PrintDefaults()
	}

	binary := fs.Bool("binary", false, "treat the GET response as a file download")
	out := fs.StringP("out", "o", "", "path for downloaded files")
	data := fs.StringP("data", "d", "", "JSON request body, or @file to read it from a file")
	query := fs.StringArrayP("query", "q", nil, "query parameter as key=value (repeatable)")
	limit := fs.Int("limit", 20, "number of history entries to print")

	if err := fs.Parse(args); err != nil {
		return app.Command{}, err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return app.Command{}, fmt.Errorf("missing command")
	}

	cmd := app.Command{
		Verb:    strings.ToLower(rest[0]),
		Binary:  *binary,
		OutPath: *out,
		Limit:   *limit,
	}
	if cmd.Verb != app.CmdHistory {
		if len(rest) < 2 {
			return app.Command{}, fmt.Errorf("%s requires an endpoint", cmd.Verb)
		}
		cmd.Endpoint = rest[1]
	}

	params, err := parseQuery(*query)
	if err != nil {
		return app.Command{}, err
	}
	cmd.Query = params

	if *data != "" {
		body, err := parseBody(*data)
		if err != nil {
			return app.Command{}, err
		}
		cmd.Body = body
	}
	return cmd, nil
}

// parseQuery collects key=value pairs. Repeated keys become a list.
func parseQuery(pairs []string) (httpclient.Params, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	params := httpclient.Params{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q (want key=value)", pair)
		}
		switch existing := params[key].(type) {
		case nil:
			params[key] = value
		case string:
			params[key] = []string{existing, value}
		case []string:
			params[key] = append(existing, value)
		}
	}
	return params, nil
}

func parseBody(data string) (any, error) {
	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read body file: %w", err)
		}
		raw = b
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("request body is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"github.com/spf13/afero"

	basecamp "github.com/freeform/basecamp-api"
	"github.com/freeform/basecamp-api/store"
)

// exitStatus is returned when the API answered with a 4xx or 5xx status.
const exitStatus = 2

func commands(log hclog.Logger, ui cli.Ui) map[string]cli.CommandFactory {
	request := func(method string) cli.CommandFactory {
		return func() (cli.Command, error) {
			return &RequestCommand{Log: log, UI: ui, Method: method}, nil
		}
	}

	return map[string]cli.CommandFactory{
		"get":    request(http.MethodGet),
		"post":   request(http.MethodPost),
		"put":    request(http.MethodPut),
		"delete": request(http.MethodDelete),
		"version": func() (cli.Command, error) {
			return &VersionCommand{UI: ui}, nil
		},
	}
}

// RequestCommand sends a single API call.
type RequestCommand struct {
	Log    hclog.Logger
	UI     cli.Ui
	Method string

	flagConfig   string
	flagBaseURL  string
	flagData     string
	flagFile     string
	flagETagFile string
	flagTimeout  time.Duration
	flagDebug    bool
}

func (c *RequestCommand) Synopsis() string {
	return fmt.Sprintf("Send a %s request", c.Method)
}

func (c *RequestCommand) Help() string {
	return fmt.Sprintf(`Usage: bcx %s [options] <resource>

  Sends a %s request for resource, e.g. "projects/1/messages/2.json",
  and prints the normalized result. Credentials come from -config and
  the BASECAMP_* environment variables, the latter taking precedence.

  Exits 1 on a transport or configuration error and 2 when the API
  answered with an error status.

Options:
%s`, strings.ToLower(c.Method), c.Method, c.flagsHelp())
}

func (c *RequestCommand) flags() *flag.FlagSet {
	f := flag.NewFlagSet(strings.ToLower(c.Method), flag.ContinueOnError)
	f.StringVar(&c.flagConfig, "config", "", "Path to a YAML account file.")
	f.StringVar(&c.flagBaseURL, "base-url", "", "Override the account API root.")
	f.StringVar(&c.flagData, "data", "", "JSON object sent as the request body.")
	f.StringVar(&c.flagFile, "file", "", "File sent unmodified as the request body.")
	f.StringVar(&c.flagETagFile, "etag-file", "", "Persist validators in this file between runs.")
	f.DurationVar(&c.flagTimeout, "timeout", basecamp.DefaultTimeout, "Per request timeout.")
	f.BoolVar(&c.flagDebug, "debug", false, "Log the request pipeline to stderr.")
	return f
}

func (c *RequestCommand) flagsHelp() string {
	var b strings.Builder
	f := c.flags()
	f.SetOutput(&b)
	f.PrintDefaults()
	return b.String()
}

func (c *RequestCommand) Run(args []string) int {
	flags := c.flags()
	flags.SetOutput(&uiWriter{ui: c.UI})
	if err := flags.Parse(args); err != nil {
		return 1
	}
	if flags.NArg() != 1 {
		c.UI.Error("exactly one resource argument is required")
		return 1
	}
	if c.flagData != "" && c.flagFile != "" {
		c.UI.Error("-data and -file are mutually exclusive")
		return 1
	}

	account, err := c.account()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	params, err := c.params()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	options, err := c.options()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	client := basecamp.New(account, options...)
	res, err := client.Request(context.Background(), c.Method, flags.Arg(0), params)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error sending request: %v", err))
		return 1
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		c.UI.Error(fmt.Sprintf("error encoding result: %v", err))
		return 1
	}
	c.UI.Output(string(out))

	if res.StatusCode >= http.StatusBadRequest {
		return exitStatus
	}
	return 0
}

func (c *RequestCommand) account() (basecamp.Account, error) {
	var account basecamp.Account
	if c.flagConfig != "" {
		a, err := basecamp.LoadAccount(c.flagConfig)
		if err != nil {
			return account, err
		}
		account = a
	}
	return account.ApplyEnv(), nil
}

func (c *RequestCommand) params() (basecamp.Params, error) {
	switch {
	case c.flagFile != "":
		data, err := os.ReadFile(c.flagFile)
		if err != nil {
			return nil, fmt.Errorf("error reading body file: %w", err)
		}
		return basecamp.Params{basecamp.BinaryParam: data}, nil
	case c.flagData != "":
		var params basecamp.Params
		if err := json.Unmarshal([]byte(c.flagData), &params); err != nil {
			return nil, fmt.Errorf("-data must be a JSON object: %w", err)
		}
		return params, nil
	}
	return nil, nil
}

func (c *RequestCommand) options() ([]basecamp.Option, error) {
	options := []basecamp.Option{basecamp.WithTimeout(c.flagTimeout)}

	if c.flagBaseURL != "" {
		options = append(options, basecamp.WithBaseURL(c.flagBaseURL))
	}

	if c.flagETagFile != "" {
		s, err := store.NewFileStore(afero.NewOsFs(), c.flagETagFile)
		if err != nil {
			return nil, err
		}
		options = append(options, basecamp.WithValidatorStore(s))
	}

	if c.flagDebug {
		c.Log.SetLevel(hclog.Debug)
		options = append(options,
			basecamp.WithLogger(c.Log.Named("client")),
			basecamp.WithDebug(),
		)
	}

	return options, nil
}

// VersionCommand prints build information.
type VersionCommand struct {
	UI cli.Ui
}

func (c *VersionCommand) Synopsis() string {
	return "Print the version"
}

func (c *VersionCommand) Help() string {
	return "Usage: bcx version"
}

func (c *VersionCommand) Run(_ []string) int {
	c.UI.Output(basecamp.GetVersion())
	return 0
}

// uiWriter routes flag parse errors to the UI.
type uiWriter struct {
	ui cli.Ui
}

func (w *uiWriter) Write(p []byte) (int, error) {
	w.ui.Error(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

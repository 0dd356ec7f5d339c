// Package service abstracts over the host's init system for stopping and
// starting the managed web server. Each supported init system differs only
// in the command template it runs; the contract is identical across all of
// them. The variant is selected once, up front, from the configured
// identifier; an unknown identifier is a configuration error, never a
// call-time surprise.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xenago/ls-updater/internal/execx"
	"github.com/xenago/ls-updater/internal/messages"
)

// Controller stops and starts the managed service.
// Stop and Start are idempotent: stopping an already-stopped service (or
// starting a running one) succeeds, because every supported init system
// treats that as a no-op.
type Controller interface {
	Stop(ctx context.Context) error
	Start(ctx context.Context) error
	// Status returns the init system's status output for the service.
	// It is informational only; callers must not parse it.
	Status(ctx context.Context) (string, error)
}

// Error reports a failed service control command, carrying the exact
// command line, exit code, and captured output for the operator.
type Error struct {
	Action   string
	Service  string
	Command  string
	ExitCode int
	Output   []byte
	Err      error
}

func (e *Error) Error() string {
	out := strings.TrimSpace(string(e.Output))
	if out != "" {
		return fmt.Sprintf(messages.ServiceCommandFailedOutputFmt, e.Action, e.Service, e.Command, e.ExitCode, out)
	}
	return fmt.Sprintf(messages.ServiceCommandFailedFmt, e.Action, e.Service, e.Command, e.ExitCode, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// variant holds the command template for one init system family.
type variant struct {
	canonical string
	argv      func(service string, action string) []string
}

// variants maps every accepted init-system identifier (including aliases)
// to its command template. Mirrors the identifiers accepted by config
// validation; Supported is the single source of truth for both.
var variants = map[string]variant{
	"systemd":   {canonical: "systemd", argv: subcommandFirst("systemctl")},
	"systemctl": {canonical: "systemd", argv: subcommandFirst("systemctl")},
	"service":   {canonical: "service", argv: serviceArgv},
	"generic":   {canonical: "service", argv: serviceArgv},
	"init.d":    {canonical: "init.d", argv: scriptArgv("/etc/init.d/")},
	"openrc":    {canonical: "init.d", argv: scriptArgv("/etc/init.d/")},
	"rc.d":      {canonical: "rc.d", argv: scriptArgv("/etc/rc.d/")},
	"upstart":   {canonical: "upstart", argv: subcommandFirst("initctl")},
	"finit":     {canonical: "upstart", argv: subcommandFirst("initctl")},
	"initctl":   {canonical: "upstart", argv: subcommandFirst("initctl")},
	"epoch":     {canonical: "epoch", argv: subcommandFirst("epoch")},
}

// subcommandFirst builds templates of the form: tool <action> <service>.
func subcommandFirst(tool string) func(string, string) []string {
	return func(service, action string) []string {
		return []string{tool, action, service}
	}
}

// serviceArgv builds: service <service> <action>.
func serviceArgv(service, action string) []string {
	return []string{"service", service, action}
}

// scriptArgv builds: <dir><service> <action>.
func scriptArgv(dir string) func(string, string) []string {
	return func(service, action string) []string {
		return []string{dir + service, action}
	}
}

// Supported reports whether id names a known init system or alias.
func Supported(id string) bool {
	_, ok := variants[id]
	return ok
}

// ForInitSystem returns the controller for the configured init system.
// The mapping is pure: no command runs until Stop/Start/Status is called.
func ForInitSystem(id string, serviceName string, runner execx.Runner) (Controller, error) {
	v, ok := variants[id]
	if !ok {
		return nil, fmt.Errorf(messages.ServiceUnknownInitSystemFmt, id)
	}
	if serviceName == "" {
		return nil, fmt.Errorf(messages.ServiceNameRequired)
	}
	if runner == nil {
		return nil, fmt.Errorf(messages.ServiceRunnerRequired)
	}
	return &commandController{variant: v, service: serviceName, runner: runner}, nil
}

// commandController drives one init system through its command template.
type commandController struct {
	variant variant
	service string
	runner  execx.Runner
}

func (c *commandController) Stop(ctx context.Context) error {
	return c.run(ctx, "stop")
}

func (c *commandController) Start(ctx context.Context) error {
	return c.run(ctx, "start")
}

func (c *commandController) Status(ctx context.Context) (string, error) {
	argv := c.variant.argv(c.service, "status")
	out, err := c.runner.Run(ctx, argv[0], argv[1:]...)
	if err != nil {
		return "", c.wrap("status", err)
	}
	return strings.TrimSpace(string(out.Combined)), nil
}

func (c *commandController) run(ctx context.Context, action string) error {
	argv := c.variant.argv(c.service, action)
	if _, err := c.runner.Run(ctx, argv[0], argv[1:]...); err != nil {
		return c.wrap(action, err)
	}
	return nil
}

// wrap converts a runner failure into a *Error with command context.
func (c *commandController) wrap(action string, err error) error {
	svcErr := &Error{Action: action, Service: c.service, Err: err}
	var cmdErr *execx.CommandError
	if errors.As(err, &cmdErr) {
		svcErr.Command = cmdErr.Command
		svcErr.ExitCode = cmdErr.ExitCode
		svcErr.Output = cmdErr.Output
		svcErr.Err = cmdErr.Err
	}
	return svcErr
}

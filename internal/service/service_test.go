package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xenago/ls-updater/internal/execx"
)

// recordingRunner records each invocation and replays canned results.
type recordingRunner struct {
	calls [][]string
	out   execx.Output
	err   error
}

func (r *recordingRunner) Run(_ context.Context, name string, args ...string) (execx.Output, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	return r.out, r.err
}

func TestForInitSystemCommandTemplates(t *testing.T) {
	tests := []struct {
		id   string
		want []string
	}{
		{"systemd", []string{"systemctl", "stop", "apache2"}},
		{"systemctl", []string{"systemctl", "stop", "apache2"}},
		{"service", []string{"service", "apache2", "stop"}},
		{"generic", []string{"service", "apache2", "stop"}},
		{"init.d", []string{"/etc/init.d/apache2", "stop"}},
		{"openrc", []string{"/etc/init.d/apache2", "stop"}},
		{"rc.d", []string{"/etc/rc.d/apache2", "stop"}},
		{"upstart", []string{"initctl", "stop", "apache2"}},
		{"finit", []string{"initctl", "stop", "apache2"}},
		{"initctl", []string{"initctl", "stop", "apache2"}},
		{"epoch", []string{"epoch", "stop", "apache2"}},
	}
	for _, tc := range tests {
		t.Run(tc.id, func(t *testing.T) {
			runner := &recordingRunner{}
			ctrl, err := ForInitSystem(tc.id, "apache2", runner)
			require.NoError(t, err)
			require.NoError(t, ctrl.Stop(context.Background()))
			require.Equal(t, [][]string{tc.want}, runner.calls)
		})
	}
}

func TestForInitSystemUnknown(t *testing.T) {
	_, err := ForInitSystem("launchd", "apache2", &recordingRunner{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "launchd")
}

func TestForInitSystemRequiresServiceAndRunner(t *testing.T) {
	_, err := ForInitSystem("systemd", "", &recordingRunner{})
	require.Error(t, err)
	_, err = ForInitSystem("systemd", "apache2", nil)
	require.Error(t, err)
}

func TestSupported(t *testing.T) {
	require.True(t, Supported("systemd"))
	require.True(t, Supported("rc.d"))
	require.False(t, Supported("launchd"))
	require.False(t, Supported(""))
}

func TestStopIdempotent(t *testing.T) {
	// Stopping twice issues the same command twice; both calls succeed
	// because the init system treats stopping a stopped service as a no-op.
	runner := &recordingRunner{}
	ctrl, err := ForInitSystem("systemd", "nginx", runner)
	require.NoError(t, err)
	require.NoError(t, ctrl.Stop(context.Background()))
	require.NoError(t, ctrl.Stop(context.Background()))
	require.Len(t, runner.calls, 2)
	require.Equal(t, runner.calls[0], runner.calls[1])
}

func TestStartAndStatus(t *testing.T) {
	runner := &recordingRunner{out: execx.Output{Combined: []byte("active (running)\n")}}
	ctrl, err := ForInitSystem("systemd", "nginx", runner)
	require.NoError(t, err)

	require.NoError(t, ctrl.Start(context.Background()))
	status, err := ctrl.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, "active (running)", status)
	require.Equal(t, [][]string{
		{"systemctl", "start", "nginx"},
		{"systemctl", "status", "nginx"},
	}, runner.calls)
}

func TestFailureWrapsCommandDetails(t *testing.T) {
	cmdErr := &execx.CommandError{
		Command:  "systemctl stop nginx",
		ExitCode: 5,
		Output:   []byte("Failed to stop nginx.service: Unit not loaded."),
	}
	runner := &recordingRunner{err: cmdErr}
	ctrl, err := ForInitSystem("systemd", "nginx", runner)
	require.NoError(t, err)

	stopErr := ctrl.Stop(context.Background())
	var svcErr *Error
	require.ErrorAs(t, stopErr, &svcErr)
	require.Equal(t, "stop", svcErr.Action)
	require.Equal(t, "nginx", svcErr.Service)
	require.Equal(t, "systemctl stop nginx", svcErr.Command)
	require.Equal(t, 5, svcErr.ExitCode)
	require.Contains(t, svcErr.Error(), "Unit not loaded")
}

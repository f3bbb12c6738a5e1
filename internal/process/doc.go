// Package process runs the commands bound to pad keys.
//
// A key whose action is {"type": "command"} starts an executable when
// pressed. Runner starts each one in its own process group, captures the
// first few KB of output, and terminates the group with SIGTERM then
// SIGKILL on timeout or shutdown.
//
// Example usage:
//
//	runner := process.NewRunner(process.Config{
//	    Timeout:         30 * time.Second,
//	    AllowedCommands: []string{"/usr/bin/obs"},
//	})
//	defer runner.Stop()
//
//	err := runner.Start(ctx, "stream/1", "/usr/bin/obs", []string{"--startrecording"})
package process

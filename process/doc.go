// Package process runs external commands and drains their output without
// deadlocking.
//
// A Command is built once with New, which resolves the executable, and can be
// invoked any number of times. Each invocation spawns a fresh child in its own
// process group, feeds an optional stdin payload, and drains stdout and stderr
// together on the calling goroutine with Drain, one poll over both pipes per
// round, so a child blocked on a full stderr pipe can never stall a parent that
// is still reading stdout.
//
//	cmd, err := process.New("rsync",
//	    process.WithArgs("-a"),
//	    process.WithCheck(true),
//	    process.WithRetry(3, 5*time.Second),
//	)
//	out, errOut, err := cmd.GetOutputWithRetry(ctx, nil, src, dst)
//
// Output is delivered line by line to a Handler. Without a handler the lines
// are accumulated and exposed through Stdout and Stderr.
//
// No timeout or kill is applied to a running child: the context passed to the
// entry points scopes tracing and retry sleeps only.
package process

/*
Package terminal manages interactive shell sessions bound to workspaces.

Each session owns one supervised shell process (see the process package) and
one event broadcaster (see the broadcast package). Output, echoed input,
lifecycle notices and the final exit status all flow through the
broadcaster, so any number of viewers can attach at any time, receive a
bounded replay of recent history and then follow live output.

# Lifecycle

	mgr := terminal.NewManager(cfg, workspaces, logger)
	session, err := mgr.Create("ws-123", "")
	_ = mgr.WriteInput(session.ID, "ls\n")
	_ = mgr.Close(session.ID)

A session whose shell exits stays registered (and readable) until it is
closed explicitly, or until the reaper removes it when Config.ReapAfter is
set.

# Feature Flag

Every operation fails with ErrDisabled while the manager is disabled. The
flag can be flipped at runtime with SetEnabled; streams that are already
open are not severed.
*/
package terminal

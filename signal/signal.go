// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package signal

import (
	"os"
	"os/signal"
	"syscall"
)

// InterruptListener returns a channel that is closed when an interrupt signal
// (SIGINT or SIGTERM) is received. A second signal forces an immediate exit
// for the case where graceful teardown hangs.
func InterruptListener() <-chan struct{} {
	c := make(chan struct{})
	go func() {
		interruptChannel := make(chan os.Signal, 1)
		signal.Notify(interruptChannel, syscall.SIGINT, syscall.SIGTERM)

		sig := <-interruptChannel
		log.Infof("Received signal (%s). Shutting down...", sig)
		close(c)

		sig = <-interruptChannel
		log.Infof("Received signal (%s) again. Terminating immediately", sig)
		os.Exit(1)
	}()
	return c
}

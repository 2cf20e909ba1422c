package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/feedbackcoin/fbcd/config"
	"github.com/feedbackcoin/fbcd/logger"
	"github.com/feedbackcoin/fbcd/prune"
	"github.com/feedbackcoin/fbcd/signal"
	"github.com/feedbackcoin/fbcd/version"
)

// startApp loads the configuration, sets up logging and dispatches the
// requested operation.
func startApp() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			fmt.Println(err)
			return nil
		}
		return err
	}

	logger.InitLog(cfg.LogFile(), cfg.ErrLogFile())
	defer logger.BackendLog().Close()
	logger.SetLogLevels(cfg.DebugLevel)

	log.Infof("Version %s", version.Version())

	if cfg.PurgeDB {
		return purgeDB(cfg)
	}

	return errors.New("no operation requested - run with --purgedb to prune " +
		"historical block data outside the retention window")
}

// purgeDB runs the pruning maintenance operation and maps its terminal status
// to the process outcome. Insufficient history is a no-op, not a failure; a
// held data directory lock is reported as an error so scheduled maintenance
// can notice the collision with a running node.
func purgeDB(cfg *config.Config) error {
	confirmed, err := confirmPurge(cfg.Force)
	if err != nil {
		return err
	}
	if !confirmed {
		log.Info("Purge cancelled")
		return nil
	}

	result, err := prune.Run(&prune.Config{
		DataDir:    cfg.DataDir,
		MinHistory: cfg.MinHistory,
		Net:        cfg.Net,
		Interrupt:  signal.InterruptListener(),
	})
	if err != nil {
		return err
	}

	switch result.Status {
	case prune.StatusSuccess:
		log.Infof("Purge complete: %d records pruned (%d skipped), %d files "+
			"deleted (%d kept)", result.RecordsPruned, result.RecordsSkipped,
			result.FilesDeleted, result.FilesKept)
		return nil
	case prune.StatusInsufficientHistory:
		log.Info("Nothing to purge: the chain does not extend beyond the retention window")
		return nil
	case prune.StatusLockUnavailable:
		return errors.New("cannot obtain a lock on the data directory - fbcd is probably already running")
	}
	return errors.Errorf("unexpected purge status %d", result.Status)
}

// confirmPurge asks the operator to confirm the destructive operation. The
// prompt only makes sense on a terminal; non-interactive invocations must
// pass --force explicitly.
func confirmPurge(force bool) (bool, error) {
	if force {
		return true, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, errors.New("--purgedb permanently deletes historical " +
			"block data; re-run with --force to confirm")
	}

	fmt.Print("Purging permanently deletes historical block data and " +
		"transaction index entries. Are you sure? [y/N]: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, errors.WithStack(err)
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

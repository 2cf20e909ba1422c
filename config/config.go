// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/feedbackcoin/fbcd/logger"
	"github.com/feedbackcoin/fbcd/version"
)

const (
	defaultConfigFilename = "fbcd.conf"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "fbcd.log"
	defaultErrLogFilename = "fbcd_err.log"

	// defaultMinHistory is the default retention window: the minimum
	// number of blocks below the tip that stay fully retrievable when
	// purging.
	defaultMinHistory = 1000
)

var (
	// DefaultHomeDir is the default home directory for fbcd.
	DefaultHomeDir = btcutil.AppDataDir("fbcd", false)

	defaultConfigFile = filepath.Join(DefaultHomeDir, defaultConfigFilename)
	defaultDataDir    = filepath.Join(DefaultHomeDir, defaultDataDirname)
	defaultLogDir     = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

// Flags defines the configuration options for fbcd.
//
// See LoadConfig for details on the configuration load process.
type Flags struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir      string `long:"logdir" description:"Directory to log output"`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	Testnet     bool   `long:"testnet" description:"Use the test network"`
	PurgeDB     bool   `long:"purgedb" description:"Permanently erase the transaction index entries and block files of history outside the retention window, then exit"`
	MinHistory  uint64 `long:"minhistory" description:"Minimum number of blocks below the tip that must remain fully retrievable when purging"`
	Force       bool   `short:"f" long:"force" description:"Skip the interactive confirmation before destructive maintenance operations"`
}

// Config defines the configuration options for fbcd after the defaults, the
// config file and the command line have been combined and validated.
type Config struct {
	*Flags

	// Net is the network magic of the network the node operates on.
	Net wire.BitcoinNet
}

func defaultFlags() *Flags {
	return &Flags{
		ConfigFile: defaultConfigFile,
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		DebugLevel: defaultLogLevel,
		MinHistory: defaultMinHistory,
	}
}

// LoadConfig initializes and parses the config using a config file and
// command line options.
//
// The configuration proceeds as follows:
//  1. Start with a default config with sane settings
//  2. Pre-parse the command line to check for an alternative config file
//  3. Load configuration file overwriting defaults with any specified options
//  4. Parse CLI options and overwrite/add any specified options
func LoadConfig() (*Config, error) {
	cfgFlags := defaultFlags()

	// Pre-parse the command line options to see if an alternative config
	// file was specified.
	preCfg := *cfgFlags
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, err
		}
		return nil, err
	}

	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version.Version())
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(cfgFlags, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(preCfg.ConfigFile)
	if err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return nil, errors.Wrapf(err, "error parsing config file %s",
				preCfg.ConfigFile)
		}
		// A missing config file is only an error when one was
		// explicitly requested.
		if preCfg.ConfigFile != defaultConfigFile {
			return nil, errors.Wrapf(err, "could not open config file %s",
				preCfg.ConfigFile)
		}
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.Parse()
	if err != nil {
		return nil, err
	}

	cfg := &Config{Flags: cfgFlags, Net: wire.MainNet}
	if cfg.Testnet {
		cfg.Net = wire.TestNet3
	}

	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)
	if cfg.Testnet {
		cfg.DataDir = filepath.Join(cfg.DataDir, "testnet")
		cfg.LogDir = filepath.Join(cfg.LogDir, "testnet")
	}

	if _, ok := logger.LevelFromString(cfg.DebugLevel); !ok {
		return nil, errors.Errorf("the specified debug level [%s] is invalid - "+
			"valid levels are: %s", cfg.DebugLevel, logger.SupportedLevels())
	}

	return cfg, nil
}

// LogFile returns the path of the log file inside the configured log
// directory.
func (cfg *Config) LogFile() string {
	return filepath.Join(cfg.LogDir, defaultLogFilename)
}

// ErrLogFile returns the path of the error log file inside the configured log
// directory.
func (cfg *Config) ErrLogFile() string {
	return filepath.Join(cfg.LogDir, defaultErrLogFilename)
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultHomeDir)
		if u, err := user.Current(); err == nil {
			homeDir = u.HomeDir
		}
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but the variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

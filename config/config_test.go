// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/wire"
)

// withCommandLine runs fn with os.Args temporarily replaced, so LoadConfig
// parses the given arguments instead of the real command line.
func withCommandLine(args []string, fn func()) {
	realArgs := os.Args
	defer func() { os.Args = realArgs }()
	os.Args = append([]string{"fbcd"}, args...)
	fn()
}

func TestLoadConfig(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "TestLoadConfig")
	if err != nil {
		t.Fatalf("TestLoadConfig: TempDir unexpectedly failed: %s", err)
	}
	defer os.RemoveAll(tmpDir)

	withCommandLine([]string{"--datadir", tmpDir, "--purgedb", "--force"}, func() {
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("TestLoadConfig: LoadConfig unexpectedly failed: %s", err)
		}
		if cfg.DataDir != filepath.Clean(tmpDir) {
			t.Errorf("TestLoadConfig: data dir is %s, want %s", cfg.DataDir, tmpDir)
		}
		if cfg.Net != wire.MainNet {
			t.Errorf("TestLoadConfig: network is %08x, want mainnet", uint32(cfg.Net))
		}
		if cfg.MinHistory != defaultMinHistory {
			t.Errorf("TestLoadConfig: min history is %d, want the default %d",
				cfg.MinHistory, defaultMinHistory)
		}
		if !cfg.PurgeDB || !cfg.Force {
			t.Errorf("TestLoadConfig: purgedb/force flags were not picked up")
		}
	})
}

func TestLoadConfigTestnet(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "TestLoadConfigTestnet")
	if err != nil {
		t.Fatalf("TestLoadConfigTestnet: TempDir unexpectedly failed: %s", err)
	}
	defer os.RemoveAll(tmpDir)

	withCommandLine([]string{"--datadir", tmpDir, "--testnet"}, func() {
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("TestLoadConfigTestnet: LoadConfig unexpectedly failed: %s", err)
		}
		if cfg.Net != wire.TestNet3 {
			t.Errorf("TestLoadConfigTestnet: network is %08x, want testnet",
				uint32(cfg.Net))
		}
		wantDataDir := filepath.Join(filepath.Clean(tmpDir), "testnet")
		if cfg.DataDir != wantDataDir {
			t.Errorf("TestLoadConfigTestnet: data dir is %s, want the testnet "+
				"subdirectory %s", cfg.DataDir, wantDataDir)
		}
	})
}

func TestLoadConfigInvalidDebugLevel(t *testing.T) {
	withCommandLine([]string{"--debuglevel", "loud"}, func() {
		_, err := LoadConfig()
		if err == nil {
			t.Fatalf("TestLoadConfigInvalidDebugLevel: LoadConfig accepted an " +
				"invalid debug level")
		}
	})
}

func TestLoadConfigFromFile(t *testing.T) {
	tmpDir, err := ioutil.TempDir("", "TestLoadConfigFromFile")
	if err != nil {
		t.Fatalf("TestLoadConfigFromFile: TempDir unexpectedly failed: %s", err)
	}
	defer os.RemoveAll(tmpDir)

	configFile := filepath.Join(tmpDir, "test.conf")
	content := "[Application Options]\nminhistory=250\ndebuglevel=debug\n"
	err = ioutil.WriteFile(configFile, []byte(content), 0600)
	if err != nil {
		t.Fatalf("TestLoadConfigFromFile: WriteFile unexpectedly failed: %s", err)
	}

	// The command line takes precedence over the config file.
	withCommandLine([]string{"--configfile", configFile, "--minhistory", "500"}, func() {
		cfg, err := LoadConfig()
		if err != nil {
			t.Fatalf("TestLoadConfigFromFile: LoadConfig unexpectedly failed: %s", err)
		}
		if cfg.MinHistory != 500 {
			t.Errorf("TestLoadConfigFromFile: min history is %d, want the "+
				"command line value 500", cfg.MinHistory)
		}
		if cfg.DebugLevel != "debug" {
			t.Errorf("TestLoadConfigFromFile: debug level is %s, want the "+
				"config file value debug", cfg.DebugLevel)
		}
	})
}

func TestLoadConfigMissingExplicitConfigFile(t *testing.T) {
	withCommandLine([]string{"--configfile", "/nonexistent/fbcd.conf"}, func() {
		_, err := LoadConfig()
		if err == nil {
			t.Fatalf("TestLoadConfigMissingExplicitConfigFile: LoadConfig " +
				"ignored a missing explicitly-requested config file")
		}
	})
}

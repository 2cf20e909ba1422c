// Copyright (c) 2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package prune

import (
	"github.com/feedbackcoin/fbcd/logger"
)

var log = logger.RegisterSubSystem("PRUN")

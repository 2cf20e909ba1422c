package version

import (
	"fmt"
	"strings"
)

const (
	appMajor uint = 0
	appMinor uint = 2
	appPatch uint = 0
)

// appBuild is defined as a variable so it can be overridden during the build
// process with '-ldflags "-X github.com/feedbackcoin/fbcd/version.appBuild=foo"'
// if needed. It MUST only contain alphanumerics and dashes.
var appBuild string

// Version returns the application version as a properly formed string.
func Version() string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)

	// Append build metadata if there is any. The build metadata string is
	// not appended if it contains invalid characters.
	if appBuild != "" && isValidBuild(appBuild) {
		version = fmt.Sprintf("%s-%s", version, appBuild)
	}
	return version
}

func isValidBuild(build string) bool {
	const validCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"
	for _, r := range build {
		if !strings.ContainsRune(validCharacters, r) {
			return false
		}
	}
	return true
}

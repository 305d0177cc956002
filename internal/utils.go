package internal

import (
	"os"
	"strings"
)

// EnvDebug turns on text buffer snapshots under the state directory.
const EnvDebug = "PATLIGHT_DEBUG"

func IsDebugMode() bool {
	isDebug := strings.ToLower(os.Getenv(EnvDebug))
	return isDebug == "true" || isDebug == "1"
}

package printer

import (
	"fmt"
	"runtime"

	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// Version information.
var (
	BuildTS   = "None"
	GitHash   = "None"
	GitBranch = "None"
)

// PrintInfo logs the chdash version information.
func PrintInfo() {
	log.Info("Welcome to chdash.",
		zap.String("Git Commit Hash", GitHash),
		zap.String("Git Branch", GitBranch),
		zap.String("UTC Build Time", BuildTS),
		zap.String("GoVersion", runtime.Version()))
}

func GetInfo() string {
	return fmt.Sprintf("Git Commit Hash: %s\n"+
		"Git Branch: %s\n"+
		"UTC Build Time: %s\n"+
		"GoVersion: %s",
		GitHash,
		GitBranch,
		BuildTS,
		runtime.Version())
}

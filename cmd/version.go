package cmd

import (
	"fmt"
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/AJAY-DOMBALE-04/Placeme/internal/model"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (model bundle format v%d)\n", app, currentVersion(), model.BundleVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// currentVersion falls back to the module version for go install builds.
func currentVersion() string {
	if version != "unknown" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

package version

// Flag contains extra info about the version, such as "rc1". It must be empty
// on release builds.
const Flag = ""

var (
	// Version is the full version string
	Version = "0.3.0"

	// GitCommit is set with
	// --ldflags "-X github.com/racegate/racegate/src/version.GitCommit=$(git rev-parse HEAD)"
	GitCommit string
)

func init() {
	if Flag != "" {
		Version += "-" + Flag
	}

	if len(GitCommit) >= 8 {
		Version += "-" + GitCommit[:8]
	}
}

package version

import "runtime/debug"

// Name is the program name reported by the CLI and the tool server.
const Name = "storepulse"

var version = "dev"

// Version returns the module version stamped into the binary, or the value set via
// -ldflags "-X .../pkg/version.version=..." when the build carries no module sum.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Sum != "" {
		return info.Main.Version
	}
	return version
}

// Banner returns "storepulse <version>".
func Banner() string {
	return Name + " " + Version()
}

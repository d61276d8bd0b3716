package build

import (
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// CurrentCommit is injected by the linker:
//
//	go build -ldflags "-X github.com/curiostorage/alerthub/build.CurrentCommit=$(git rev-parse --short HEAD)"
var CurrentCommit string

// Release holds the semantic version triple and the release candidate number,
// zero for a final release.
var Release = struct {
	Semver [3]int
	RC     int
}{
	Semver: [3]int{0, 3, 0},
}

// BuildVersion is Release rendered as "0.3.0" or "0.3.0-rc1".
var BuildVersion = renderVersion()

func renderVersion() string {
	v := strings.Join(lo.Map(Release.Semver[:], func(n int, _ int) string {
		return strconv.Itoa(n)
	}), ".")
	if Release.RC > 0 {
		v += "-rc" + strconv.Itoa(Release.RC)
	}
	return v
}

// UserVersion is the version printed by the CLI. The commit suffix is left out
// when it is unknown or ALERTHUB_VERSION_IGNORE_COMMIT=1, which keeps generated
// output stable across commits.
func UserVersion() string {
	if CurrentCommit == "" || os.Getenv("ALERTHUB_VERSION_IGNORE_COMMIT") == "1" {
		return BuildVersion
	}
	return BuildVersion + "+" + CurrentCommit
}

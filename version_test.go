package basecamp

import (
	"runtime"
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	v := GetVersion()

	if !strings.HasPrefix(v, "basecamp-api "+Version) {
		t.Errorf("Expected version prefix, got %q", v)
	}
	if !strings.HasSuffix(v, runtime.Version()) {
		t.Errorf("Expected toolchain %s in %q", runtime.Version(), v)
	}
}

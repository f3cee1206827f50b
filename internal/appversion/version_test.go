package appversion_test

import (
	"strings"
	"testing"

	"mofox-ui/internal/appversion"
)

func TestString(t *testing.T) {
	t.Parallel()

	v := appversion.String()
	if v == "" {
		t.Fatal("String() must not be empty")
	}
	if !strings.HasPrefix(v, "dev") {
		t.Errorf("String() = %q, want a dev version in tests", v)
	}
}

package dartrie

import (
	"errors"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	var in *InputError
	if err := inputError("bad"); !errors.As(err, &in) {
		t.Fatalf("inputError should unwrap to *InputError")
	} else if in.Error() == "" {
		t.Fatalf("InputError.Error() should not be empty")
	}

	var su *SetupError
	if err := setupError("bad setup"); !errors.As(err, &su) {
		t.Fatalf("setupError should unwrap to *SetupError")
	}

	var sc *ScaleError
	if err := scaleError("num_nodes", 1<<31); !errors.As(err, &sc) {
		t.Fatalf("scaleError should unwrap to *ScaleError")
	} else if sc.Arg != "num_nodes" || sc.Max != 1<<31 {
		t.Fatalf("ScaleError fields = %+v, want Arg=num_nodes Max=%d", sc, uint32(1<<31))
	}
}

package netsim

import "testing"

func TestFlitType_String(t *testing.T) {
	cases := map[FlitType]string{
		FlitAny:          "ANY",
		FlitReadRequest:  "READ_REQUEST",
		FlitWriteRequest: "WRITE_REQUEST",
		FlitReadReply:    "READ_REPLY",
		FlitWriteReply:   "WRITE_REPLY",
	}
	for ft, want := range cases {
		if got := ft.String(); got != want {
			t.Errorf("flit type %d: got %q, want %q", int(ft), got, want)
		}
	}
}

func TestFlitType_UnknownStringsAsAny(t *testing.T) {
	if got := FlitType(99).String(); got != "ANY" {
		t.Errorf("expected an unrecognized flit type to print as ANY, got %q", got)
	}
}

func TestNewFlit_DefaultsVCFieldsToNoVC(t *testing.T) {
	f := NewFlit()
	if f.VC != NoVC {
		t.Errorf("expected a fresh flit's VC to be NoVC, got %d", f.VC)
	}
	if f.BypassVC != NoVC {
		t.Errorf("expected a fresh flit's BypassVC to be NoVC, got %d", f.BypassVC)
	}
}

package proto

import "testing"

func TestParsePLCFamily(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    PLCFamily
		wantErr bool
	}{
		{"Q", "Q", Q, false},
		{"L", "L", L, false},
		{"QnA", "QnA", QnA, false},
		{"iQ-L", "iQ-L", IQL, false},
		{"iQ-R", "iQ-R", IQR, false},
		{"unknown", "Qn", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePLCFamily(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePLCFamily(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParsePLCFamily(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPLCFamilyStringRoundTrip(t *testing.T) {
	for _, f := range []PLCFamily{Q, L, QnA, IQL, IQR} {
		got, err := ParsePLCFamily(f.String())
		if err != nil {
			t.Fatalf("ParsePLCFamily(%q) unexpected error: %v", f.String(), err)
		}
		if got != f {
			t.Errorf("round trip for %v produced %v", f, got)
		}
	}
}

func TestParseCommType(t *testing.T) {
	if ct, err := ParseCommType("binary"); err != nil || ct != Binary {
		t.Errorf("binary: got %v, %v", ct, err)
	}
	if ct, err := ParseCommType("ascii"); err != nil || ct != ASCII {
		t.Errorf("ascii: got %v, %v", ct, err)
	}
	if _, err := ParseCommType("BINARY"); err == nil {
		t.Error("expected error for case-mismatched comm type")
	}
}

func TestCommTypeWordSize(t *testing.T) {
	if Binary.WordSize() != 2 {
		t.Errorf("binary word size = %d, want 2", Binary.WordSize())
	}
	if ASCII.WordSize() != 4 {
		t.Errorf("ascii word size = %d, want 4", ASCII.WordSize())
	}
}

func TestDialectForEveryFamily(t *testing.T) {
	for _, f := range []PLCFamily{Q, L, QnA, IQL, IQR} {
		d := DialectFor(f)
		if d.DevNumBytes == 0 || d.DevCodeBytes == 0 {
			t.Errorf("DialectFor(%v) has zero field width: %+v", f, d)
		}
	}

	iqr := DialectFor(IQR)
	q := DialectFor(Q)
	if iqr.WordSubcmd == q.WordSubcmd {
		t.Error("expected iQ-R word subcommand to differ from Q's")
	}
	if iqr.DevNumBytes <= q.DevNumBytes {
		t.Error("expected iQ-R device number field to be wider than Q's")
	}
}

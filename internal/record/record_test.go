package record

import (
	"testing"
)

func testRecord() Record {
	r, err := Parse([]byte(`{
		"study": {
			"firstAuthor": {"value": "Kudo", "sourceText": "Kudo et al. reported"},
			"year": {"value": 2007, "sourceText": "published in 2007"}
		},
		"population": {
			"sampleSize": {"value": 100, "sourceText": "100 patients underwent SDC"},
			"age": {"mean": {"value": 62.5, "sourceText": "mean age 62.5 years"}}
		},
		"outcomes": {
			"mortality": {"value": "20/100 (20%)", "sourceText": "20 of 100 patients died (20%)"}
		},
		"notes": "free text"
	}`))
	if err != nil {
		panic(err)
	}
	return r
}

func TestGet(t *testing.T) {
	r := testRecord()

	tests := []struct {
		path string
		want bool
	}{
		{"study.firstAuthor", true},
		{"population.age.mean", true},
		{"outcomes.mortality", true},
		{"notes", true},
		{"outcomes.missing", false},
		{"notes.nested", false},
	}

	for _, tt := range tests {
		if _, ok := r.Get(tt.path); ok != tt.want {
			t.Errorf("Get(%q) ok = %v, want %v", tt.path, ok, tt.want)
		}
	}
}

func TestGetField(t *testing.T) {
	r := testRecord()

	f, ok := r.GetField("population.sampleSize")
	if !ok {
		t.Fatal("expected population.sampleSize to be a verifiable field")
	}
	if f.SourceText != "100 patients underwent SDC" {
		t.Errorf("unexpected sourceText: %q", f.SourceText)
	}
	if n, ok := AsFloat(f.Value); !ok || n != 100 {
		t.Errorf("expected value 100, got %v", f.Value)
	}

	if _, ok := r.GetField("notes"); ok {
		t.Error("plain string leaf should not be a verifiable field")
	}
}

func TestVerifiableFields(t *testing.T) {
	r := testRecord()
	fields := r.VerifiableFields()

	if len(fields) != 5 {
		t.Fatalf("expected 5 verifiable fields, got %d: %v", len(fields), fields)
	}
	if _, ok := fields["outcomes.mortality"]; !ok {
		t.Error("expected outcomes.mortality in verifiable fields")
	}
	if _, ok := fields["notes"]; ok {
		t.Error("notes is not verifiable and should be excluded")
	}
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{float64(12.5), 12.5, true},
		{"85", 85, true},
		{"85%", 85, true},
		{" 3.2 ", 3.2, true},
		{"twenty", 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := AsFloat(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("AsFloat(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseRatio(t *testing.T) {
	tests := []struct {
		in         string
		count      float64
		total      float64
		pct        float64
		hasCount   bool
		hasPercent bool
	}{
		{"20/100 (25%)", 20, 100, 25, true, true},
		{"20/100", 20, 100, 0, true, false},
		{"25%", 0, 0, 25, false, true},
		{"12 / 48 (25.0%)", 12, 48, 25.0, true, true},
	}

	for _, tt := range tests {
		r, ok := ParseRatio(tt.in)
		if !ok {
			t.Errorf("ParseRatio(%q) failed", tt.in)
			continue
		}
		if r.HasCount != tt.hasCount || r.HasPercent != tt.hasPercent {
			t.Errorf("ParseRatio(%q) flags = (%v, %v), want (%v, %v)",
				tt.in, r.HasCount, r.HasPercent, tt.hasCount, tt.hasPercent)
		}
		if r.HasCount && (r.Count != tt.count || r.Total != tt.total) {
			t.Errorf("ParseRatio(%q) = %v/%v, want %v/%v", tt.in, r.Count, r.Total, tt.count, tt.total)
		}
		if r.HasPercent && r.Percent != tt.pct {
			t.Errorf("ParseRatio(%q) percent = %v, want %v", tt.in, r.Percent, tt.pct)
		}
	}

	if _, ok := ParseRatio("no numbers here"); ok {
		t.Error("expected ParseRatio to fail on text without ratio or percent")
	}
}

func TestContainsNumber(t *testing.T) {
	quote := "20 of 100 patients died (20.0%)"

	if !ContainsNumber(quote, "20") {
		t.Error("expected 20 to be found")
	}
	if !ContainsNumber(quote, "20.0") {
		t.Error("expected 20.0 to match 20")
	}
	if ContainsNumber(quote, "25") {
		t.Error("did not expect 25 to be found")
	}
}

func TestFlags(t *testing.T) {
	r := testRecord()

	flags := r.Flags("full document text")
	if !flags.HasFullText {
		t.Error("expected HasFullText")
	}
	if !flags.HasOutcomes {
		t.Error("expected HasOutcomes")
	}
	if flags.HasComparator {
		t.Error("did not expect HasComparator")
	}
	if flags.HasQuality {
		t.Error("did not expect HasQuality")
	}

	flags = r.Flags("")
	if flags.HasFullText {
		t.Error("empty full text should not set HasFullText")
	}
}

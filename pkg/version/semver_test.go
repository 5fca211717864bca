package version

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    SemVer
		wantErr bool
	}{
		{input: "1.2.3", want: SemVer{Major: 1, Minor: 2, Patch: 3}},
		{input: "v2.0.1", want: SemVer{Major: 2, Minor: 0, Patch: 1}},
		{input: "0.0.0", want: SemVer{}},
		{
			input: "1.0.0-rc.1+exp.sha",
			want:  SemVer{Major: 1, Minor: 0, Patch: 0, PreRelease: "rc.1", Build: "exp.sha"},
		},
		{input: "10.20.30-alpha-2", want: SemVer{Major: 10, Minor: 20, Patch: 30, PreRelease: "alpha-2"}},
		{input: "", wantErr: true},
		{input: "1", wantErr: true},
		{input: "1.0", wantErr: true},
		{input: "1.0.0.0", wantErr: true},
		{input: "01.0.0", wantErr: true},
		{input: "1.0.0-01", wantErr: true},
		{input: "1.0.0-rc..1", wantErr: true},
		{input: "1.0.0+meta_data", wantErr: true},
		{input: "1.x.0", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("Parse(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSemVer_String(t *testing.T) {
	v := SemVer{Major: 1, Minor: 2, Patch: 3, PreRelease: "beta.2", Build: "sha.5114f85"}
	if got := v.String(); got != "1.2.3-beta.2+sha.5114f85" {
		t.Fatalf("String() = %q", got)
	}
	if got := MustParse("v1.0.0").String(); got != "1.0.0" {
		t.Fatalf("String() = %q, want %q", got, "1.0.0")
	}
}

func TestSemVer_Compare(t *testing.T) {
	tests := []struct {
		left  string
		right string
		want  int
	}{
		{left: "1.0.0", right: "1.0.0", want: 0},
		{left: "1.0.1", right: "1.0.0", want: 1},
		{left: "2.0.0", right: "1.9.9", want: 1},
		{left: "1.2.0", right: "1.10.0", want: -1},
		{left: "1.0.0-alpha", right: "1.0.0", want: -1},
		{left: "1.0.0-alpha.1", right: "1.0.0-alpha.beta", want: -1},
		{left: "1.0.0-alpha.1", right: "1.0.0-alpha", want: 1},
		{left: "1.0.0-beta", right: "1.0.0-alpha.1", want: 1},
		{left: "1.0.0-2", right: "1.0.0-10", want: -1},
		{left: "1.0.0+build.1", right: "1.0.0+build.2", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.left+"_vs_"+tt.right, func(t *testing.T) {
			got := MustParse(tt.left).Compare(MustParse(tt.right))
			if got != tt.want {
				t.Fatalf("Compare(%s, %s) = %d, want %d", tt.left, tt.right, got, tt.want)
			}
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid version")
		}
	}()
	MustParse("not-a-version")
}

func TestIsValid(t *testing.T) {
	if !IsValid("v1.2.3-rc.1+meta") {
		t.Fatal("expected v1.2.3-rc.1+meta to be valid")
	}
	if IsValid("1.2") {
		t.Fatal("expected 1.2 to be invalid")
	}
}

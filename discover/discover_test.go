// discover_test.go - Tests fuer Compiler-, CPU- und Geraete-Erkennung
package discover

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCandidates(t *testing.T) {
	t.Setenv("SAS_CC", "")
	if got := candidates(); len(got) != 3 || got[0] != "cc" {
		t.Errorf("candidates() = %v", got)
	}

	t.Setenv("SAS_CC", "gcc-13")
	if diff := cmp.Diff([]string{"gcc-13"}, candidates()); diff != "" {
		t.Errorf("SAS_CC ignoriert:\n%s", diff)
	}
}

func TestFindCompilerOverrideMissing(t *testing.T) {
	t.Setenv("SAS_CC", "sasmodels-no-such-compiler")
	Refresh()
	t.Cleanup(Refresh)

	_, err := FindCompiler(context.Background())
	if !errors.Is(err, ErrNoCompiler) {
		t.Errorf("FindCompiler() = %v, erwartet ErrNoCompiler", err)
	}
}

func TestVectorFlags(t *testing.T) {
	cases := map[string]struct {
		cpu    CPU
		expect []string
	}{
		"avx2+fma": {CPU{Arch: "amd64", Features: []string{"avx", "avx2", "fma"}}, []string{"-mavx2", "-mfma"}},
		"avx":      {CPU{Arch: "amd64", Features: []string{"avx"}}, []string{"-mavx"}},
		"plain":    {CPU{Arch: "amd64"}, nil},
		"arm64":    {CPU{Arch: "arm64", Features: []string{"asimd"}}, nil},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			if diff := cmp.Diff(tt.expect, VectorFlags(tt.cpu)); diff != "" {
				t.Errorf("VectorFlags (-erwartet +erhalten):\n%s", diff)
			}
		})
	}
}

func TestHostCPU(t *testing.T) {
	c := HostCPU()
	if c.Arch == "" || c.Threads < 1 {
		t.Errorf("HostCPU() = %+v", c)
	}
}

func TestSelectDevice(t *testing.T) {
	devices := []Device{
		{Index: 0, Platform: "Portable Computing Language", Name: "pthread-Intel(R) Core(TM) i7", Extensions: ParseExtensions("cl_khr_fp64 cl_khr_fp16")},
		{Index: 1, Platform: "NVIDIA CUDA", Name: "NVIDIA GeForce RTX 3060", GPU: true, Extensions: ParseExtensions("cl_khr_fp64")},
	}

	cases := map[string]struct {
		sel    string
		expect int
		err    bool
	}{
		"default gpu": {"", 1, false},
		"index":       {"0", 0, false},
		"name":        {"geforce", 1, false},
		"platform":    {"portable", 0, false},
		"bad index":   {"5", 0, true},
		"no match":    {"radeon", 0, true},
	}

	for name, tt := range cases {
		t.Run(name, func(t *testing.T) {
			d, err := SelectDevice(devices, tt.sel)
			if tt.err {
				if err == nil {
					t.Errorf("erwartet Fehler, erhalten %v", d)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if d.Index != tt.expect {
				t.Errorf("Geraet = %v, erwartet Index %d", d, tt.expect)
			}
		})
	}

	if !devices[0].HasHalf() || devices[1].HasHalf() || !devices[1].HasDouble() {
		t.Error("Extension-Erkennung fehlerhaft")
	}
	if _, err := SelectDevice(nil, ""); err == nil {
		t.Error("erwartet Fehler ohne Geraete")
	}
}

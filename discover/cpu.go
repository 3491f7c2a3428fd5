// Modul: cpu.go
// Beschreibung: Erkennung der Host-CPU und passender Vektor-Flags.

package discover

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// CPU beschreibt den Host-Prozessor
type CPU struct {
	Arch     string   `json:"arch"`
	Threads  int      `json:"threads"`
	Features []string `json:"features,omitempty"`
}

// HostCPU gibt die Eigenschaften des Host-Prozessors zurueck
func HostCPU() CPU {
	c := CPU{Arch: runtime.GOARCH, Threads: runtime.NumCPU()}

	switch runtime.GOARCH {
	case "amd64", "386":
		for _, f := range []struct {
			name string
			has  bool
		}{
			{"sse4.1", cpu.X86.HasSSE41},
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
		} {
			if f.has {
				c.Features = append(c.Features, f.name)
			}
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			c.Features = append(c.Features, "asimd")
		}
		if cpu.ARM64.HasFPHP {
			c.Features = append(c.Features, "fphp")
		}
	}
	return c
}

// VectorFlags gibt Compiler-Flags fuer die Vektor-Einheiten des Hosts
// zurueck. Die Bibliothek laeuft danach nur noch auf diesem Host.
func VectorFlags(c CPU) []string {
	has := make(map[string]bool, len(c.Features))
	for _, f := range c.Features {
		has[f] = true
	}

	var flags []string
	switch c.Arch {
	case "amd64", "386":
		if has["avx2"] {
			flags = append(flags, "-mavx2")
		} else if has["avx"] {
			flags = append(flags, "-mavx")
		}
		if has["fma"] {
			flags = append(flags, "-mfma")
		}
	}
	return flags
}

// Package avr configures the environment for the avr-gcc toolchain and adds
// builders that link firmware and convert it to Intel HEX.
package avr

import (
	"fmt"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Builder names.
const (
	HexBuilder = "AVRHex"
	ElfBuilder = "AVRElf"
)

// Configuration keys.
const (
	KeyMMCU    = "AVR_MMCU"
	KeyFCPU    = "AVR_F_CPU"
	KeyObjcopy = "AVR_OBJCOPY"
)

// DefaultMMCU is used when AVR_MMCU is not configured.
const DefaultMMCU = "atmega328p"

// cpuFrequencies holds the clock of the boards we know about.
var cpuFrequencies = map[string]int{
	"atmega128":  7372800,
	"atmega328p": 16000000,
}

var _ ports.Tool = (*Tool)(nil)

// Tool is the AVR toolchain.
type Tool struct{}

// New creates the avr tool.
func New() *Tool {
	return &Tool{}
}

// Name implements ports.Tool.
func (t *Tool) Name() string {
	return "avr"
}

// Exists implements ports.Tool.
func (t *Tool) Exists(*domain.Env) bool {
	return true
}

// Generate implements ports.Tool.
func (t *Tool) Generate(reg *domain.Registry, env *domain.Env, log ports.Logger) error {
	env.Replace("CC", "avr-gcc")
	env.Replace("CXX", "avr-g++")
	env.Replace("AR", "avr-ar")
	env.Replace("RANLIB", "avr-ranlib")
	env.SetDefault(KeyObjcopy, "avr-objcopy")
	env.SetDefault(KeyMMCU, DefaultMMCU)

	mmcu := env.String(KeyMMCU)
	freq, known := cpuFrequencies[mmcu]
	if !env.Has(KeyFCPU) {
		if known {
			env.Replace(KeyFCPU, freq)
		} else {
			log.Warn(fmt.Sprintf("unknown %s %q and %s not set", KeyMMCU, mmcu, KeyFCPU))
			env.Replace(KeyFCPU, "")
		}
	}

	// AVR_F_CPU is resolved here from the project MCU. A step that sets its
	// own AVR_MMCU must set AVR_F_CPU as well.
	archFlags := []string{"-mmcu=$AVR_MMCU", "-DF_CPU=$AVR_F_CPU"}

	env.Append("CFLAGS", archFlags...)
	env.Append("CXXFLAGS", archFlags...)
	env.Append("LINKFLAGS", archFlags...)
	env.Append("LINKFLAGS", "-Wl,--gc-sections")

	env.Append("CFLAGS", "-fdata-sections", "-ffunction-sections", "-s")
	env.Append("CXXFLAGS", "-fno-exceptions")
	env.Append("CFLAGS", "-Os")
	env.Append("CFLAGS", "-std=c99")

	if err := reg.AddBuilder(&domain.Builder{
		Name:      ElfBuilder,
		Action:    domain.CommandAction("$CC $CFLAGS $LINKFLAGS -o $TARGET $SOURCES"),
		Suffix:    ".elf",
		SrcSuffix: ".c",
	}); err != nil {
		return err
	}

	return reg.AddBuilder(&domain.Builder{
		Name:      HexBuilder,
		Action:    domain.CommandAction("$AVR_OBJCOPY -O ihex -R .eeprom $SOURCE $TARGET"),
		Suffix:    ".hex",
		SrcSuffix: ".elf",
	})
}

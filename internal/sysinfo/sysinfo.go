package sysinfo

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Collector reads machine metadata that helps whoever replays a recording
// understand where it came from. Every source is optional.
type Collector struct {
	SysRoot  string
	ProcRoot string
}

// NewCollector returns a Collector for the running system.
func NewCollector() *Collector {
	return &Collector{SysRoot: "/sys", ProcRoot: "/proc"}
}

var dmiFields = []struct {
	file  string
	label string
}{
	{"sys_vendor", "Vendor"},
	{"product_name", "Product"},
	{"product_version", "Version"},
	{"bios_vendor", "BIOS vendor"},
	{"bios_version", "BIOS version"},
	{"bios_date", "BIOS date"},
}

// Collect returns "Label: value" lines for the log header. Unreadable or
// empty sources are skipped.
func (c *Collector) Collect() []string {
	var lines []string

	if v := readTrimmed(filepath.Join(c.ProcRoot, "sys", "kernel", "osrelease")); v != "" {
		lines = append(lines, "Kernel: "+v)
	}

	dmi := filepath.Join(c.SysRoot, "class", "dmi", "id")
	for _, f := range dmiFields {
		if v := readTrimmed(filepath.Join(dmi, f.file)); v != "" {
			lines = append(lines, f.label+": "+v)
		}
	}

	return append(lines, c.serioDevices()...)
}

// serioDevices describes every serio device, including pass-through ports
// hanging off the i8042 ones.
func (c *Collector) serioDevices() []string {
	dir := filepath.Join(c.SysRoot, "bus", "serio", "devices")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		desc := readTrimmed(filepath.Join(dir, name, "description"))
		if desc == "" {
			continue
		}
		line := name + ": " + desc
		if id := readTrimmed(filepath.Join(dir, name, "firmware_id")); id != "" {
			line += " (" + id + ")"
		}
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}

func readTrimmed(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

package sysinfo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestCollect(t *testing.T) {
	sys, proc := t.TempDir(), t.TempDir()

	writeFile(t, filepath.Join(proc, "sys", "kernel", "osrelease"), "6.1.0-13-amd64\n")
	writeFile(t, filepath.Join(sys, "class", "dmi", "id", "sys_vendor"), "LENOVO\n")
	writeFile(t, filepath.Join(sys, "class", "dmi", "id", "product_name"), "20HRCTO1WW\n")
	writeFile(t, filepath.Join(sys, "class", "dmi", "id", "bios_version"), "  \n")
	writeFile(t, filepath.Join(sys, "bus", "serio", "devices", "serio1", "description"), "i8042 AUX port\n")
	writeFile(t, filepath.Join(sys, "bus", "serio", "devices", "serio1", "firmware_id"), "PNP: LEN0073 PNP0f13\n")
	writeFile(t, filepath.Join(sys, "bus", "serio", "devices", "serio0", "description"), "i8042 KBD port\n")

	got := (&Collector{SysRoot: sys, ProcRoot: proc}).Collect()

	assert.Equal(t, []string{
		"Kernel: 6.1.0-13-amd64",
		"Vendor: LENOVO",
		"Product: 20HRCTO1WW",
		"serio0: i8042 KBD port",
		"serio1: i8042 AUX port (PNP: LEN0073 PNP0f13)",
	}, got)
}

func TestCollect_MissingSources(t *testing.T) {
	got := (&Collector{SysRoot: t.TempDir(), ProcRoot: t.TempDir()}).Collect()
	assert.Empty(t, got)
}

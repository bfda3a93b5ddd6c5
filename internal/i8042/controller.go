package i8042

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultRoot is where sysfs is mounted.
const DefaultRoot = "/sys"

// Controller toggles the i8042 driver's debug output and forces its ports
// to be re-probed, so a capture sees the whole initialization sequence.
type Controller struct {
	Root   string
	Logger *slog.Logger
}

// Port is a serio device owned by the i8042 driver.
type Port struct {
	Name        string // serio0, serio1, ...
	Description string // i8042 KBD port, i8042 AUX port, ...
}

func (c *Controller) root() string {
	if c.Root == "" {
		return DefaultRoot
	}
	return c.Root
}

func (c *Controller) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger.With("component", "i8042")
}

func (c *Controller) debugPath() string {
	return filepath.Join(c.root(), "module", "i8042", "parameters", "debug")
}

// SetDebug turns the driver's debug logging on or off.
func (c *Controller) SetDebug(enabled bool) error {
	val := "0"
	if enabled {
		val = "1"
	}
	if err := os.WriteFile(c.debugPath(), []byte(val), 0o644); err != nil {
		return fmt.Errorf("setting i8042 debug to %s: %w", val, err)
	}
	c.logger().Debug("i8042 debug output changed", "enabled", enabled)
	return nil
}

// Debug reports whether debug logging is on.
func (c *Controller) Debug() (bool, error) {
	data, err := os.ReadFile(c.debugPath())
	if err != nil {
		return false, fmt.Errorf("reading i8042 debug: %w", err)
	}
	switch strings.TrimSpace(string(data)) {
	case "1", "Y", "y":
		return true, nil
	default:
		return false, nil
	}
}

// Ports lists the serio devices the i8042 driver created.
func (c *Controller) Ports() ([]Port, error) {
	dir := filepath.Join(c.root(), "bus", "serio", "devices")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing serio devices: %w", err)
	}

	var ports []Port
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), "serio") {
			continue
		}
		desc, err := os.ReadFile(filepath.Join(dir, e.Name(), "description"))
		if err != nil {
			continue
		}
		d := strings.TrimSpace(string(desc))
		if !strings.HasPrefix(d, "i8042") {
			continue
		}
		ports = append(ports, Port{Name: e.Name(), Description: d})
	}
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
	return ports, nil
}

// Rebind asks the serio core to detach and re-probe every i8042 port.
// It returns the ports that were rebound.
func (c *Controller) Rebind(ctx context.Context) ([]Port, error) {
	ports, err := c.Ports()
	if err != nil {
		return nil, err
	}
	if len(ports) == 0 {
		return nil, fmt.Errorf("no i8042 serio ports found under %s", c.root())
	}

	for _, p := range ports {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		drvctl := filepath.Join(c.root(), "bus", "serio", "devices", p.Name, "drvctl")
		if err := os.WriteFile(drvctl, []byte("rescan"), 0o644); err != nil {
			return nil, fmt.Errorf("rebinding %s: %w", p.Name, err)
		}
		c.logger().Info("rebound port", "port", p.Name, "description", p.Description)
	}
	return ports, nil
}

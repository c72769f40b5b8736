package extension

import (
	"bufio"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// internalManifests holds the framework-shipped manifests bundled into the
// binary, the highest-precedence directory from spec.md §4.A
// ("internal-dubbo/"). Extension packages that ship with this module drop
// their manifest text files here.
//
//go:embed manifests/internal-dubbo
var internalManifests embed.FS

// manifestEntry is one parsed `name=key` line, remembering where it came
// from for duplicate-detection diagnostics.
type manifestEntry struct {
	key    string
	source string
}

// manifestSource is one of the three fixed-precedence directories.
type manifestSource struct {
	label string
	open  func(capability string) (fs.File, error)
}

func manifestSources() []manifestSource {
	userDir := os.Getenv("REGLET_EXTENSIONS_DIR")
	if userDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			userDir = filepath.Join(home, ".reglet", "extensions")
		}
	}

	sources := []manifestSource{
		{
			label: "internal-dubbo",
			open: func(capability string) (fs.File, error) {
				return internalManifests.Open(filepath.Join("manifests", "internal-dubbo", capability))
			},
		},
		{
			label: "dubbo",
			open: func(capability string) (fs.File, error) {
				if userDir == "" {
					return nil, fs.ErrNotExist
				}
				return os.Open(filepath.Join(userDir, capability))
			},
		},
	}

	// "services/" is the ambient-platform standard SPI layout; there is no
	// such convention on Windows, so the directory is simply absent there
	// and reading it always misses, exactly like a missing resource on any
	// platform.
	if runtime.GOOS != "windows" {
		sources = append(sources, manifestSource{
			label: "services",
			open: func(capability string) (fs.File, error) {
				return os.Open(filepath.Join("/etc", "reglet", "extensions", capability))
			},
		})
	}

	return sources
}

// manifestTable is the outcome of reading and merging all three
// precedence directories: the resolved name -> key mapping plus the
// discovery order names were first seen in, which governs wrapper
// composition order and activation tie-breaking per spec.md §4.A and §5.
type manifestTable struct {
	keys  map[string]string // name -> registration key
	order []string          // names in first-seen discovery order
}

// readManifests merges the three precedence directories for capability
// into a manifestTable, in the fixed order spec.md §4.A requires. The
// three directories are read concurrently (golang.org/x/sync/errgroup)
// but the merge itself is always applied internal-dubbo, then dubbo, then
// services, so the result is independent of goroutine completion order.
func readManifests(capability string) (*manifestTable, error) {
	sources := manifestSources()
	perSource := make([][]manifestLine, len(sources))

	loadID := uuid.New()
	log := slog.With("load_id", loadID, "capability", capability)

	g := new(errgroup.Group)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			lines, err := readOneManifest(src, capability)
			if err != nil {
				return err
			}
			perSource[i] = lines
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := map[string][]manifestEntry{}
	table := &manifestTable{keys: map[string]string{}}
	for i, src := range sources {
		for _, ln := range perSource[i] {
			for _, name := range ln.names {
				if _, seen := table.keys[name]; !seen {
					table.order = append(table.order, name)
					table.keys[name] = ln.key
				}
				merged[name] = append(merged[name], manifestEntry{key: ln.key, source: src.label})
			}
		}
	}

	for name, entries := range merged {
		for i := 1; i < len(entries); i++ {
			if entries[i].key != entries[0].key {
				return nil, &ManifestError{
					Capability: capability,
					Source:     fmt.Sprintf("%s vs %s", entries[0].source, entries[i].source),
					Reason:     fmt.Sprintf("duplicate name %q maps to both %q and %q", name, entries[0].key, entries[i].key),
				}
			}
		}
	}

	log.Debug("manifests loaded", "names", len(merged))
	return table, nil
}

type manifestLine struct {
	names []string
	key   string
}

func readOneManifest(src manifestSource, capability string) ([]manifestLine, error) {
	f, err := src.open(capability)
	if err != nil {
		if os.IsNotExist(err) || err == fs.ErrNotExist {
			return nil, nil
		}
		return nil, &ManifestError{Capability: capability, Source: src.label, Reason: "cannot open resource", Cause: err}
	}
	defer f.Close()

	var lines []manifestLine
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		raw := scanner.Text()
		if idx := strings.IndexByte(raw, '#'); idx >= 0 {
			raw = raw[:idx]
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		var nameList, key string
		if eq := strings.IndexByte(raw, '='); eq >= 0 {
			nameList = strings.TrimSpace(raw[:eq])
			key = strings.TrimSpace(raw[eq+1:])
		} else {
			key = raw
			nameList = deriveName(key, capability)
			if nameList == "" {
				slog.Warn("skipping manifest entry", "capability", capability, "source", src.label,
					"reason", fmt.Sprintf("cannot derive name from key %q", key))
				continue
			}
		}
		if nameList == "" || key == "" {
			slog.Warn("skipping manifest entry", "capability", capability, "source", src.label,
				"reason", fmt.Sprintf("malformed entry %q", raw))
			continue
		}

		names := strings.Split(nameList, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		lines = append(lines, manifestLine{names: names, key: key})
	}
	if err := scanner.Err(); err != nil {
		return nil, &ManifestError{Capability: capability, Source: src.label, Reason: "read failure", Cause: err}
	}
	return lines, nil
}

// deriveName implements spec.md §4.A's fallback: strip a trailing
// capability-simple-name suffix from key and lowercase the remainder.
func deriveName(key, capability string) string {
	simple := capability
	if idx := strings.LastIndexByte(simple, '.'); idx >= 0 {
		simple = simple[idx+1:]
	}
	base := key
	if idx := strings.LastIndexByte(base, '.'); idx >= 0 {
		base = base[idx+1:]
	}
	if !strings.HasSuffix(base, simple) {
		return ""
	}
	derived := strings.TrimSuffix(base, simple)
	return strings.ToLower(derived)
}

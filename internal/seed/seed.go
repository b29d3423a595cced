package seed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dwax1324/roomescape-payment/internal/reservation"
	"gopkg.in/yaml.v3"
)

// File is the parsed content of a seed document.
type File struct {
	Themes  []reservation.Theme
	Times   []string
	Members []Member
}

type Member struct {
	Name     string
	Email    string
	Password string
	Admin    bool
}

// Sink receives seed rows. Every insert must be idempotent.
type Sink interface {
	InsertThemeIfMissing(ctx context.Context, t reservation.Theme) error
	InsertTimeIfMissing(ctx context.Context, startAt string) error
	UpsertMember(ctx context.Context, name, email, password string, admin bool) error
}

func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return Load(f)
}

// Load parses a seed document. Each section accepts a list, or a map keyed
// by the natural key (theme name, start time, member email).
func Load(r io.Reader) (File, error) {
	var data map[string]any
	if err := yaml.NewDecoder(r).Decode(&data); err != nil && err != io.EOF {
		return File{}, fmt.Errorf("seed: %w", err)
	}

	var out File
	for _, it := range items(data["themes"], "name") {
		t := reservation.Theme{
			Name:        str(it["name"]),
			Description: str(it["description"]),
			Thumbnail:   str(it["thumbnail"]),
		}
		if t.Name == "" {
			return File{}, fmt.Errorf("seed: theme without name")
		}
		out.Themes = append(out.Themes, t)
	}
	for _, it := range items(data["times"], "startAt") {
		start := str(it["startAt"])
		if start == "" {
			start = str(it["start_at"])
		}
		if _, err := time.Parse("15:04", start); err != nil {
			return File{}, fmt.Errorf("seed: time %q must be HH:MM", start)
		}
		out.Times = append(out.Times, start)
	}
	for _, it := range items(data["members"], "email") {
		m := Member{
			Name:     str(it["name"]),
			Email:    str(it["email"]),
			Password: str(it["password"]),
		}
		switch v := it["admin"].(type) {
		case bool:
			m.Admin = v
		default:
			m.Admin = strings.EqualFold(str(v), "true")
		}
		if m.Email == "" || m.Password == "" {
			return File{}, fmt.Errorf("seed: member %q needs email and password", m.Name)
		}
		out.Members = append(out.Members, m)
	}
	return out, nil
}

// items normalizes a section to a list of maps. Scalars in a list become
// {key: value}; map entries get their key injected under key.
func items(section any, key string) []map[string]any {
	var out []map[string]any
	switch v := section.(type) {
	case []any:
		for _, it := range v {
			switch e := it.(type) {
			case map[string]any:
				out = append(out, e)
			case nil:
			default:
				out = append(out, map[string]any{key: e})
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			e, _ := v[k].(map[string]any)
			m := map[string]any{key: k}
			for ek, ev := range e {
				m[ek] = ev
			}
			out = append(out, m)
		}
	}
	return out
}

func str(v any) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(v))
}

// Apply writes f into sink in dependency order.
func Apply(ctx context.Context, sink Sink, f File, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, t := range f.Themes {
		if err := sink.InsertThemeIfMissing(ctx, t); err != nil {
			return fmt.Errorf("theme %s: %w", t.Name, err)
		}
	}
	for _, s := range f.Times {
		if err := sink.InsertTimeIfMissing(ctx, s); err != nil {
			return fmt.Errorf("time %s: %w", s, err)
		}
	}
	for _, m := range f.Members {
		if err := sink.UpsertMember(ctx, m.Name, m.Email, m.Password, m.Admin); err != nil {
			return fmt.Errorf("member %s: %w", m.Email, err)
		}
	}
	logger.Info("seed applied",
		slog.Int("themes", len(f.Themes)), slog.Int("times", len(f.Times)), slog.Int("members", len(f.Members)))
	return nil
}

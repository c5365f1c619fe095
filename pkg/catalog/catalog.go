// Package catalog holds the Pawna personality type catalog and the
// questionnaire used to determine an owner's dog type.
package catalog

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// Type describes one of the sixteen Pawna personality types.
type Type struct {
	Code        string   `json:"pawna_code"`
	MBTI        string   `json:"mbti"`
	Name        string   `json:"type_name"`
	Description string   `json:"description"`
	Solution    string   `json:"solution"`
	Traits      []string `json:"personality_traits"`
	ImageURL    string   `json:"image_url,omitempty"`
	SiteURL     string   `json:"site_url,omitempty"`
}

// Catalog is an in-memory view of the type CSV, keyed by Pawna code.
type Catalog struct {
	types map[string]Type
	codes []string
}

// Load reads the type catalog from a CSV file with the columns
// Pawna, MBTI, Type Name, Description, Solution, Personality,
// Img URL and Site URL. A missing file yields an empty catalog so the
// rest of the service can still run.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{types: map[string]Type{}}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("type catalog file not found, starting empty", "path", path)
			return c, nil
		}
		return nil, errors.Wrapf(err, "open type catalog %s", path)
	}
	defer f.Close()

	if err := c.read(f); err != nil {
		return nil, errors.Wrapf(err, "read type catalog %s", path)
	}
	logger.Info("type catalog loaded", "path", path, "types", len(c.codes))
	return c, nil
}

func (c *Catalog) read(r io.Reader) error {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && bytes.Equal(bom, []byte{0xEF, 0xBB, 0xBF}) {
		br.Discard(3)
	}

	cr := csv.NewReader(br)
	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return errors.New("empty catalog file")
		}
		return err
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	if _, ok := col["Pawna"]; !ok {
		return errors.New("missing Pawna column")
	}

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		code := strings.ToUpper(field(rec, "Pawna"))
		if code == "" {
			continue
		}
		t := Type{
			Code:        code,
			MBTI:        field(rec, "MBTI"),
			Name:        field(rec, "Type Name"),
			Description: field(rec, "Description"),
			Solution:    field(rec, "Solution"),
			Traits:      splitTraits(field(rec, "Personality")),
			ImageURL:    field(rec, "Img URL"),
			SiteURL:     field(rec, "Site URL"),
		}
		if _, dup := c.types[code]; !dup {
			c.codes = append(c.codes, code)
		}
		c.types[code] = t
	}
}

func splitTraits(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	traits := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			traits = append(traits, p)
		}
	}
	return traits
}

// Lookup returns the type for a code, case-insensitively.
func (c *Catalog) Lookup(code string) (Type, bool) {
	t, ok := c.types[strings.ToUpper(strings.TrimSpace(code))]
	return t, ok
}

// Types lists all known types in catalog file order.
func (c *Catalog) Types() []Type {
	out := make([]Type, 0, len(c.codes))
	for _, code := range c.codes {
		out = append(out, c.types[code])
	}
	return out
}

// Len reports how many types are loaded.
func (c *Catalog) Len() int {
	return len(c.types)
}

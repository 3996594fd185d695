package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/contrib/renders/multitemplate"
	"github.com/gin-gonic/gin"
)

type Config struct {
	Listen         string `json:"listen"`
	ServerURL      string `json:"server_url"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	HistorySize    int    `json:"history_size"`
	ArtifactSuffix string `json:"artifact_suffix"`

	huffpackConfigDir string
}

func (c *Config) SetDefaults() {
	c.Listen = "localhost:8667"
	c.ServerURL = "http://localhost:8667"
	c.MaxUploadBytes = 64 << 20
	c.HistorySize = 50
	c.ArtifactSuffix = ".huf"
}

func (c *Config) Init() error {
	cfgdir, err := os.UserConfigDir()
	if err != nil {
		return err
	}

	return c.InitDir(filepath.Join(cfgdir, "huffpack"))
}

func (c *Config) InitDir(dir string) error {
	c.huffpackConfigDir = dir

	err := os.MkdirAll(c.huffpackConfigDir, 0777)
	if err != nil && !errors.Is(err, fs.ErrExist) {
		return err
	}

	return nil
}

func (c *Config) Path() string {
	return filepath.Join(c.huffpackConfigDir, "config.json")
}

// Load reads config.json over the defaults, so a file that omits a
// field keeps its default value.
func (c *Config) Load() error {
	c.SetDefaults()

	f, err := os.Open(c.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	err = dec.Decode(c)
	if err != nil {
		return fmt.Errorf("cannot parse %q: %w", c.Path(), err)
	}

	return c.Validate()
}

func (c *Config) Validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", c.MaxUploadBytes)
	}
	if c.HistorySize <= 0 {
		return fmt.Errorf("history_size must be positive, got %d", c.HistorySize)
	}
	if c.ArtifactSuffix == "" {
		return fmt.Errorf("artifact_suffix must not be empty")
	}
	return nil
}

func (c Config) Save() error {
	f, err := os.OpenFile(c.Path(), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "    ")
	err = enc.Encode(c)
	if err != nil {
		return err
	}

	return nil
}

// ReadDir lists regular files of dirname, preferring copies from the
// config directory over the ones shipped next to the binary.
func (c Config) ReadDir(dirname string) ([]string, error) {
	locals := make(map[string]bool)
	entries, err := os.ReadDir(filepath.Join(c.huffpackConfigDir, dirname))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	result := make([]string, 0, len(entries))

	for _, entry := range entries {
		if skipEntry(entry) {
			continue
		}

		locals[entry.Name()] = true
		result = append(result, filepath.Join(c.huffpackConfigDir, dirname, entry.Name()))
	}

	entries, err = os.ReadDir(dirname)
	if err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if skipEntry(entry) || locals[entry.Name()] {
			continue
		}

		result = append(result, filepath.Join(dirname, entry.Name()))
	}

	return result, nil
}

func skipEntry(entry fs.DirEntry) bool {
	if !entry.Type().IsRegular() {
		return true
	}

	name := entry.Name()
	return strings.HasSuffix(name, ".swp") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}

// InitTemplates loads templates/*.html; files starting with "_" are
// partials available to every other template.
func (c Config) InitTemplates(r *gin.Engine) error {
	var err error
	var data []byte
	var tmpl *template.Template

	var names, pnames []string

	template_files, err := c.ReadDir("templates")
	if err != nil {
		return err
	}
	for _, name := range template_files {
		if strings.HasPrefix(filepath.Base(name), "_") {
			pnames = append(pnames, name)
		} else {
			names = append(names, name)
		}
	}

	funcs := template.FuncMap{
		"join":  strings.Join,
		"bytes": humanBytes,
	}

	render := multitemplate.New()
	ptmpls := make(map[string]*template.Template)
	for _, pname := range pnames {
		if data, err = os.ReadFile(pname); err != nil {
			return fmt.Errorf("cannot open partial %q: %w", pname, err)
		}
		pname = strings.TrimSuffix(filepath.Base(pname), ".html")
		if tmpl, err = template.New(pname).Funcs(funcs).Parse(string(data)); err != nil {
			return fmt.Errorf("cannot parse template %q: %w", pname, err)
		}
		ptmpls[pname] = tmpl
	}
	for _, name := range names {
		if data, err = os.ReadFile(name); err != nil {
			return fmt.Errorf("cannot open template %q: %w", name, err)
		}
		if tmpl, err = template.New(filepath.Base(name)).Funcs(funcs).Parse(string(data)); err != nil {
			return fmt.Errorf("cannot parse template %q: %w", name, err)
		}
		for pname, ptmpl := range ptmpls {
			if _, err = tmpl.AddParseTree(pname, ptmpl.Tree); err != nil {
				return fmt.Errorf("cannot attach partial %q to %q: %w", pname, name, err)
			}
		}
		render.Add(filepath.Base(name), tmpl)
	}
	r.HTMLRender = render

	return nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/websocket"

	"huffpack/huffman"
)

type Server struct {
	Config *Config
	Runs   RunStore
	Feed   *Feed
}

func NewServer(config *Config) *Server {
	return &Server{
		Config: config,
		Runs:   NewRunStoreInMemory(config.HistorySize),
		Feed:   NewFeed(),
	}
}

func (s *Server) record(run *Run) {
	if err := s.Runs.Save(run); err != nil {
		log.Printf("cannot save run %s: %s", run.ID, err)
		return
	}
	s.Feed.Broadcast(RunEvent{Type: "run", Run: run})
}

// errorReply maps codec errors to HTTP replies.
func errorReply(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "internal_error"

	switch {
	case errors.Is(err, huffman.ErrPasswordRequired):
		status, code = http.StatusForbidden, "password_required"
	case errors.Is(err, huffman.ErrAuthentication):
		status, code = http.StatusForbidden, "auth_failed"
	case errors.Is(err, huffman.ErrMalformedContainer):
		status, code = http.StatusUnprocessableEntity, "malformed_container"
	case errors.Is(err, huffman.ErrDecodeTraversal):
		status, code = http.StatusUnprocessableEntity, "corrupt_payload"
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":       code,
		"description": err.Error(),
	})
}

// readUpload returns the name and contents of the "file" form field.
// It has already replied to the client when ok is false.
func (s *Server) readUpload(c *gin.Context) (name string, data []byte, ok bool) {
	limit := s.Config.MaxUploadBytes
	if c.Request.ContentLength > limit {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":       "too_large",
			"description": fmt.Sprintf("uploads are limited to %d bytes", limit),
		})
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	fh, err := c.FormFile("file")
	if err != nil {
		// the multipart reader flattens the MaxBytesReader error into text
		if strings.Contains(err.Error(), "request body too large") {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":       "too_large",
				"description": fmt.Sprintf("uploads are limited to %d bytes", limit),
			})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":       "no_file",
			"description": err.Error(),
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	defer f.Close()

	data, err = io.ReadAll(f)
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	return filepath.Base(fh.Filename), data, true
}

func attachment(c *gin.Context, filename string) {
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": filename,
	}))
}

func setupRouter(r *gin.Engine, s *Server) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	r.GET("/", func(c *gin.Context) {
		runs, err := s.Runs.List()
		if err != nil {
			c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Error": err.Error()})
			return
		}
		c.HTML(http.StatusOK, "index.html", gin.H{
			"Runs":      runs,
			"MaxUpload": int(s.Config.MaxUploadBytes),
		})
	})

	r.POST("/compress", func(c *gin.Context) {
		name, data, ok := s.readUpload(c)
		if !ok {
			return
		}

		artifact, m, err := huffman.Compress(data, c.PostForm("password"))
		if err != nil {
			log.Printf("cannot compress %q: %s", name, err)
			errorReply(c, err)
			return
		}

		run := NewRun(OP_COMPRESS, name, m)
		s.record(run)

		c.Header("X-Run-Id", run.ID)
		c.Header("X-Original-Size", strconv.Itoa(m.OriginalSize))
		c.Header("X-Compressed-Size", strconv.Itoa(m.CompressedSize))
		c.Header("X-Ratio", strconv.FormatFloat(m.Ratio, 'f', 2, 64))
		c.Header("X-Elapsed", m.Elapsed.String())
		attachment(c, name+s.Config.ArtifactSuffix)
		c.Data(http.StatusOK, "application/octet-stream", artifact)
	})

	r.POST("/decompress", func(c *gin.Context) {
		name, artifact, ok := s.readUpload(c)
		if !ok {
			return
		}

		t0 := time.Now()
		data, err := huffman.Decompress(artifact, c.PostForm("password"))
		if err != nil {
			log.Printf("cannot decompress %q: %s", name, err)
			errorReply(c, err)
			return
		}

		m := huffman.Metrics{
			OriginalSize:   len(data),
			CompressedSize: len(artifact),
			Elapsed:        time.Since(t0),
		}
		if h, err := huffman.Inspect(artifact); err == nil {
			m.Symbols = h.Freqs.Symbols()
			m.Encrypted = h.Encrypted
		}
		if len(data) > 0 {
			m.Ratio = float64(len(data)-len(artifact)) / float64(len(data)) * 100
		}

		run := NewRun(OP_DECOMPRESS, name, m)
		s.record(run)

		out_name := strings.TrimSuffix(name, s.Config.ArtifactSuffix)
		if out_name == name || out_name == "" {
			out_name = "decompressed_file"
		}
		c.Header("X-Run-Id", run.ID)
		attachment(c, out_name)
		c.Data(http.StatusOK, "application/octet-stream", data)
	})

	r.GET("/runs", func(c *gin.Context) {
		runs, err := s.Runs.List()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.JSON(http.StatusOK, runs)
	})

	findRun := func(c *gin.Context) *Run {
		run, err := s.Runs.FindByID(c.Param("id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "run_not_found"})
				return nil
			}
			c.AbortWithError(http.StatusInternalServerError, err)
			return nil
		}
		return run
	}

	r.GET("/runs/:id", func(c *gin.Context) {
		if run := findRun(c); run != nil {
			c.JSON(http.StatusOK, run)
		}
	})

	r.GET("/runs/:id/report", func(c *gin.Context) {
		run := findRun(c)
		if run == nil {
			return
		}
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		attachment(c, run.Filename+".report.md")
		c.Status(http.StatusOK)
		if err := WriteReport(c.Writer, run); err != nil {
			log.Printf("cannot render report for %s: %s", run.ID, err)
		}
	})

	r.GET("/ws", func(c *gin.Context) {
		handler := websocket.Handler(func(ws *websocket.Conn) {
			defer ws.Close()

			ch, cancel := s.Feed.Subscribe()
			defer cancel()

			gone := make(chan struct{})
			go func() {
				io.Copy(io.Discard, ws)
				close(gone)
			}()

			enc := json.NewEncoder(ws)
			if err := enc.Encode(RunEvent{Type: "hello"}); err != nil {
				log.Printf("cannot greet subscriber: %s", err)
				return
			}
			for {
				select {
				case <-gone:
					return
				case event, ok := <-ch:
					if !ok {
						return
					}
					if err := enc.Encode(event); err != nil {
						log.Printf("cannot send run event: %s", err)
						return
					}
				}
			}
		})
		handler.ServeHTTP(c.Writer, c.Request)
	})
}

// Engine builds a gin engine with templates and routes.
func (s *Server) Engine() (*gin.Engine, error) {
	r := gin.Default()
	if err := s.Config.InitTemplates(r); err != nil {
		return nil, fmt.Errorf("cannot init templates: %w", err)
	}
	setupRouter(r, s)
	return r, nil
}

// vim: ai:ts=8:sw=8:noet:syntax=go

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/solfactory/cone-renderer/customization"
	"github.com/solfactory/cone-renderer/preview"
	"github.com/solfactory/cone-renderer/session"
	"github.com/solfactory/cone-renderer/texture"
)

// Holds shared dependencies like config, S3 client, and texture caches.
type Server struct {
	config     *Config
	s3Uploader s3iface.S3API
	textures   *texture.Store
	generator  *texture.Generator
	sessions   *session.Store
	scene      preview.Scene
}

// NewServer wires the texture pipeline. uploader may be nil, in which case
// every preview is returned inline.
func NewServer(cfg *Config, uploader s3iface.S3API, client *http.Client) *Server {
	decoder := texture.NewURLDecoder(client, cfg.TextureMaxDimension)
	decoder.FileRoot = cfg.TextureFileRoot
	return newServer(cfg, uploader, texture.NewStore(decoder))
}

func newServer(cfg *Config, uploader s3iface.S3API, store *texture.Store) *Server {
	gen := texture.NewGenerator()
	return &Server{
		config:     cfg,
		s3Uploader: uploader,
		textures:   store,
		generator:  gen,
		sessions:   session.NewStore(preview.Textures{Cache: store, Generator: gen}, cfg.SessionTTL),
		scene:      preview.NewScene(cfg.RenderSize, cfg.RenderScale),
	}
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRender)
	mux.HandleFunc("POST /sessions/{id}", s.handleSessionRender)
	mux.HandleFunc("DELETE /sessions/{id}", s.handleSessionClose)
	mux.HandleFunc("GET /admin/textures", s.handleTextureStats)
	mux.HandleFunc("POST /admin/textures/clear", s.handleTextureClear)
	return mux
}

// PreviewEvent is the body of every render request.
type PreviewEvent struct {
	RenderType string              `json:"RenderType"`
	Hash       string              `json:"Hash"`
	State      customization.State `json:"State"`
	Options    preview.Options     `json:"Options"`
	Upload     bool                `json:"Upload"`
}

// RenderRequestType is peeked first so bad views fail before the state is parsed.
type RenderRequestType struct {
	RenderType string `json:"RenderType"`
}

func (s *Server) authorized(w http.ResponseWriter, r *http.Request) bool {
	if s.config.PostKey != "" && r.Header.Get("Aeo-Access-Key") != s.config.PostKey {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

// readEvent parses and validates a render body, writing the error response
// itself when it returns false.
func readEvent(w http.ResponseWriter, r *http.Request) (PreviewEvent, bool) {
	var e PreviewEvent
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return e, false
	}
	defer r.Body.Close()

	var reqType RenderRequestType
	if err := json.Unmarshal(body, &reqType); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return e, false
	}
	log.Printf("Received RenderType: %s", reqType.RenderType)

	switch preview.View(reqType.RenderType) {
	case preview.ViewCone, preview.ViewFilter, preview.ViewOpen, preview.ViewThumbnail:
	default:
		http.Error(w, "Invalid RenderType", http.StatusBadRequest)
		return e, false
	}

	if err := json.Unmarshal(body, &e); err != nil {
		http.Error(w, "Invalid preview body", http.StatusBadRequest)
		return e, false
	}
	if err := e.State.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return e, false
	}
	if e.Upload && e.Hash == "" {
		http.Error(w, "Hash is required for uploads", http.StatusBadRequest)
		return e, false
	}
	return e, true
}

// handleRender renders a one-off preview and throws the presenter away.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	e, ok := readEvent(w, r)
	if !ok {
		return
	}

	start := time.Now()
	p, err := preview.New(preview.View(e.RenderType), preview.Textures{Cache: s.textures, Generator: s.generator}, e.Options)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer p.Close()
	p.Update(e.State)

	s.respond(w, r, e, p)
	log.Printf("Preview %s finished in %v", e.RenderType, time.Since(start))
}

// handleSessionRender renders through the caller's long-lived presenters.
func (s *Server) handleSessionRender(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	e, ok := readEvent(w, r)
	if !ok {
		return
	}

	sess := s.sessions.Get(r.PathValue("id"))
	sess.Update(e.State)
	p, err := sess.Presenter(preview.View(e.RenderType), e.Options)
	if err != nil {
		status := http.StatusConflict
		if errors.Is(err, preview.ErrUnknownView) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	if events := sess.Events(); len(events) > 0 {
		w.Header().Set("X-Preview-Events", strings.Join(events, ","))
	}
	s.respond(w, r, e, p)
}

func (s *Server) handleSessionClose(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	if !s.sessions.Close(r.PathValue("id")) {
		http.Error(w, "Unknown session", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type textureStats struct {
	Cached   int `json:"cached"`
	InFlight int `json:"inFlight"`
}

func (s *Server) handleTextureStats(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	writeJSON(w, textureStats{Cached: s.textures.Len(), InFlight: s.textures.InFlight()})
}

// handleTextureClear drops every cached texture. Sessions are reset too,
// since their clones point at the disposed bases.
func (s *Server) handleTextureClear(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(w, r) {
		return
	}
	s.sessions.Reset()
	s.textures.Clear()
	s.generator.Clear()
	log.Printf("Texture caches cleared")
	writeJSON(w, textureStats{Cached: s.textures.Len(), InFlight: s.textures.InFlight()})
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, e PreviewEvent, p preview.Presenter) {
	buf, err := s.runRenderWithTimeout(p)
	if err != nil {
		log.Printf("Preview render failed: %v", err)
		http.Error(w, "Render failed", http.StatusGatewayTimeout)
		return
	}

	if !e.Upload || s.s3Uploader == nil {
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(buf)
		return
	}

	key := path.Join("previews", fmt.Sprintf("%s_%s.png", e.Hash, previewName(e)))
	if err := s.uploadToS3(r.Context(), buf, key, e.State.LotSize); err != nil {
		log.Printf("Preview upload failed: %v", err)
		http.Error(w, "Upload failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"url": strings.TrimSuffix(s.config.CDNURL, "/") + "/" + key})
}

func previewName(e PreviewEvent) string {
	if preview.View(e.RenderType) != preview.ViewThumbnail {
		return e.RenderType
	}
	kind := e.Options.Kind
	if kind == "" {
		kind = preview.ThumbnailPaper
	}
	return fmt.Sprintf("%s_%s", e.RenderType, kind)
}

// runRenderWithTimeout waits a bounded time for textures, then renders and
// encodes one frame. A panic in the rasterizer comes back as an error.
func (s *Server) runRenderWithTimeout(p preview.Presenter) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), RenderTimeout)
	defer cancel()

	type result struct {
		data []byte
		err  error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resChan <- result{nil, fmt.Errorf("panic in renderer: %v", r)}
			}
		}()

		waitCtx, waitCancel := context.WithTimeout(ctx, TextureWaitTimeout)
		img := s.scene.Snapshot(waitCtx, p)
		waitCancel()

		data, err := preview.EncodePNG(img)
		resChan <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("render timeout")
	case res := <-resChan:
		return res.data, res.err
	}
}

func (s *Server) uploadToS3(ctx context.Context, data []byte, key string, lot customization.LotSize) error {
	ctx, cancel := context.WithTimeout(ctx, UploadTimeout)
	defer cancel()

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("image/png"),
		ACL:           aws.String("public-read"),
	}
	if lot != "" {
		input.Metadata = map[string]*string{"lot": aws.String(string(lot))}
	}

	size := int64(len(data))
	if _, err := s.s3Uploader.PutObjectWithContext(ctx, input); err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	log.Printf("Uploaded %s to S3 (%d bytes)", key, size)
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write response: %v", err)
	}
}
